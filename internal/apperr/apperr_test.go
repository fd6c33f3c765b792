package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("name is required"), fiber.StatusBadRequest},
		{"conflict", Conflict("category %q already exists", "Crypto"), fiber.StatusConflict},
		{"not found", NotFound("product", "p1"), fiber.StatusNotFound},
		{"wrapped not found", fmt.Errorf("delete: %w", NotFound("banner", "b1")), fiber.StatusNotFound},
		{"unavailable", Unavailable("upload store is not accepting files"), fiber.StatusServiceUnavailable},
		{"infrastructure", errors.New("connection refused"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.err); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestValidationMessage(t *testing.T) {
	err := Validation("amount must be positive")
	if err.Error() != "validation failed: amount must be positive" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
