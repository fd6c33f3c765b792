// Package purchase is the ledger of purchase records and the state machine
// that grants access to a product's files.
//
// A purchase starts pending or completed depending on its grant policy and
// moves at most once more: pending to completed (approve) or pending to
// rejected (reject). Files are only exposed while completed.
package purchase

import (
	"time"

	"github.com/premiumrays/digital-goods-backend/internal/product"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

type Method string

const (
	MethodPayPal Method = "paypal"
	MethodCrypto Method = "crypto"
)

const (
	DefaultCurrency   = "USD"
	DefaultApprovedBy = "admin"
)

type Purchase struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	ProductID      string         `json:"productId,omitempty"`
	ProductName    string         `json:"productName"`
	Amount         float64        `json:"amount"`
	Currency       string         `json:"currency"`
	PaymentMethod  Method         `json:"paymentMethod"`
	CryptoCurrency string         `json:"cryptoCurrency,omitempty"`
	CryptoAddress  string         `json:"cryptoAddress,omitempty"`
	PaymentURL     string         `json:"paymentUrl,omitempty"`
	TxHash         string         `json:"txHash,omitempty"`
	Status         Status         `json:"status"`
	Files          []product.File `json:"files,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	ApprovedAt     *time.Time     `json:"approvedAt,omitempty"`
	ApprovedBy     string         `json:"approvedBy,omitempty"`
	RejectedAt     *time.Time     `json:"rejectedAt,omitempty"`
}

// Public is the view returned to clients: files stay hidden until the
// purchase is completed.
func (p Purchase) Public() Purchase {
	if p.Status != StatusCompleted {
		p.Files = nil
	}
	return p
}

// Filter narrows List. Empty fields match everything; Statuses match any of
// the listed values.
type Filter struct {
	Statuses []Status
	UserID   string
	Method   Method
}

func (f Filter) match(p Purchase) bool {
	if f.UserID != "" && p.UserID != f.UserID {
		return false
	}
	if f.Method != "" && p.PaymentMethod != f.Method {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if p.Status == s {
			return true
		}
	}
	return false
}

// CreateInput is the payload of POST /api/purchases.
type CreateInput struct {
	UserID         string         `json:"userId" validate:"required"`
	ProductID      string         `json:"productId"`
	ProductName    string         `json:"productName"`
	Amount         float64        `json:"amount" validate:"gt=0"`
	Currency       string         `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod  Method         `json:"paymentMethod" validate:"required,oneof=paypal crypto"`
	// Method is the older name of PaymentMethod, still sent by some clients.
	Method         Method         `json:"method"`
	CryptoCurrency string         `json:"cryptoCurrency"`
	CryptoAddress  string         `json:"cryptoAddress"`
	TxHash         string         `json:"txHash"`
	Files          []product.File `json:"files" validate:"omitempty,dive"`
}

// UpdateInput is the payload of PATCH /api/purchases/:id.
type UpdateInput struct {
	Status     *Status `json:"status" validate:"omitempty,oneof=pending completed rejected"`
	TxHash     *string `json:"txHash"`
	ApprovedBy string  `json:"approvedBy"`
}
