package stripewebhooks

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestIgnoreMissing(t *testing.T) {
	dbDown := errors.New("connection refused")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no error", nil, nil},
		{"missing row is acknowledged", gorm.ErrRecordNotFound, nil},
		{"wrapped missing row", fmt.Errorf("load plan: %w", gorm.ErrRecordNotFound), nil},
		{"database failure is retried", dbDown, dbDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ignoreMissing(tt.in); !errors.Is(got, tt.want) || (tt.want == nil && got != nil) {
				t.Errorf("ignoreMissing(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
