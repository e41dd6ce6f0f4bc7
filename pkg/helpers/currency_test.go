package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		amount   int64
		expected string
	}{
		{0, "₹0"},
		{50, "₹50"},
		{500, "₹500"},
		{1000, "₹1,000"},
		{50000, "₹50,000"},
		{100000, "₹1,00,000"},
		{12345678, "₹1,23,45,678"},
		{-500, "-₹500"},
		{-150000, "-₹1,50,000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatINR(tt.amount))
	}
}
