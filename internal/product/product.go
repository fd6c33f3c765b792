package product

import "time"

// File is a downloadable asset attached to a product.
type File struct {
	Name string `json:"name" validate:"required"`
	Path string `json:"path" validate:"required"`
}

type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Thumbnail     string    `json:"thumbnail"`
	Rating        float64   `json:"rating"`
	Files         []File    `json:"files"`
	OnSale        bool      `json:"onSale"`
	SalePercent   int       `json:"salePercent"`
	OriginalPrice *float64  `json:"originalPrice"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateInput is the payload of POST /api/products.
type CreateInput struct {
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Thumbnail   string  `json:"thumbnail"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	Files       []File  `json:"files" validate:"omitempty,dive"`
	OnSale      bool    `json:"onSale"`
	SalePercent int     `json:"salePercent" validate:"gte=0,lte=100"`
}

// UpdateInput is the payload of PATCH /api/products/:id. Nil fields are left
// unchanged; a non-nil Files replaces the file list.
type UpdateInput struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Thumbnail   *string  `json:"thumbnail"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Files       []File   `json:"files" validate:"omitempty,dive"`
	OnSale      *bool    `json:"onSale"`
	SalePercent *int     `json:"salePercent" validate:"omitempty,gte=0,lte=100"`
}
