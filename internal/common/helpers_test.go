package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMicroToUSDC(t *testing.T) {
	tests := []struct {
		micro uint64
		want  string
	}{
		{0, "0.000000"},
		{1, "0.000001"},
		{1000000, "1.000000"},
		{24981836, "24.981836"},
		{650000000, "650.000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MicroToUSDC(tt.micro))
	}
}

func TestUSDCToMicro(t *testing.T) {
	tests := []struct {
		usdc    string
		want    uint64
		wantErr bool
	}{
		{"0", 0, false},
		{"1", 1000000, false},
		{"5.00", 5000000, false},
		{"24.981836", 24981836, false},
		{"0.000001", 1, false},
		{"10.5", 10500000, false},
		{"10.1234567", 10123456, false}, // extra precision truncated
		{" 5.00 ", 5000000, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		got, err := USDCToMicro(tt.usdc)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.usdc)
			continue
		}
		require.NoError(t, err, "input %q", tt.usdc)
		assert.Equal(t, tt.want, got, "input %q", tt.usdc)
	}
}

func TestCompareUSDCAmounts(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"2", "1", 1},
		{"5.00", "5", 0},
		{"0.000001", "0.000002", -1},
		{"10.5", "10.500000", 0},
	}
	for _, tt := range tests {
		got, err := CompareUSDCAmounts(tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s vs %s", tt.a, tt.b)
	}

	_, err := CompareUSDCAmounts("abc", "1")
	assert.Error(t, err)
}
