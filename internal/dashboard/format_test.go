package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"22.8k", "22,800"},
		{"3k", "3,000"},
		{"67%", "67%"},
		{"1234567", "1,234,567"},
		{"1234.5", "1,234.5"},
		{"42", "42"},
		{"n/a", "n/a"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), tt.in)
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatCurrency(1234.5))
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "-$12.00", FormatCurrency(-12))
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "25.6%", FormatPercentage(0.256, 1))
	assert.Equal(t, "50%", FormatPercentage(0.5, 0))
	assert.Equal(t, "12.50%", FormatPercentage(0.125, 2))
}
