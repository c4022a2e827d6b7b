package customer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c, err := New("John", decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Equal(t, "John", c.Name())
	assert.True(t, decimal.NewFromInt(500).Equal(c.Balance()))

	_, err = New("Mallory", decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrNegativeBalance)
}

func TestPay(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		amount      string
		wantOK      bool
		wantBalance int64
	}{
		{name: "covered", balance: 500, amount: "230", wantOK: true, wantBalance: 270},
		{name: "exact balance", balance: 230, amount: "230", wantOK: true, wantBalance: 0},
		{name: "zero amount", balance: 10, amount: "0", wantOK: true, wantBalance: 10},
		{name: "insufficient", balance: 100, amount: "5030", wantOK: false, wantBalance: 100},
		{name: "one cent short", balance: 100, amount: "100.01", wantOK: false, wantBalance: 100},
		{name: "negative amount refused", balance: 100, amount: "-5", wantOK: false, wantBalance: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("Alice", decimal.NewFromInt(tt.balance))
			require.NoError(t, err)

			ok := c.Pay(decimal.RequireFromString(tt.amount))

			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.NewFromInt(tt.wantBalance).Equal(c.Balance()),
				"expected balance %d, got %s", tt.wantBalance, c.Balance())
		})
	}
}
