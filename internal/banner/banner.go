package banner

import "time"

type Banner struct {
	ID        string    `json:"id"`
	Image     string    `json:"image"`
	Link      string    `json:"link"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateInput struct {
	Image string `json:"image" validate:"required"`
	Link  string `json:"link"`
	Order int    `json:"order"`
}

type UpdateInput struct {
	Image *string `json:"image"`
	Link  *string `json:"link"`
	Order *int    `json:"order"`
}
