package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/premiumrays/digital-goods-backend/internal/apperr"
)

type sample struct {
	Name   string  `json:"name" validate:"required"`
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
	Method string  `json:"paymentMethod" validate:"oneof=paypal crypto"`
}

func TestStruct(t *testing.T) {
	if err := Struct(sample{Name: "x", Rating: 4.5, Method: "crypto"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	err := Struct(sample{Rating: 7, Method: "card"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"name is required", "rating must be at most 5", "paymentMethod must be one of"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}
