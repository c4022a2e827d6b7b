// Package customer holds the paying account of a checkout.
package customer

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNegativeBalance is returned by New for a negative opening balance.
var ErrNegativeBalance = errors.New("balance must not be negative")

// Customer is an account with a prepaid balance. The balance only changes
// through Pay and never drops below zero.
type Customer struct {
	name    string
	balance decimal.Decimal
}

// New creates a customer with the given opening balance.
func New(name string, balance decimal.Decimal) (*Customer, error) {
	if balance.IsNegative() {
		return nil, errors.Wrapf(ErrNegativeBalance, "customer %s", name)
	}
	return &Customer{name: name, balance: balance}, nil
}

// Name returns the display name.
func (c *Customer) Name() string {
	return c.name
}

// Balance returns the current balance.
func (c *Customer) Balance() decimal.Decimal {
	return c.balance
}

// Pay deducts amount and returns true if the balance covers it. Otherwise
// the balance is left untouched and Pay returns false. Negative amounts are
// refused.
func (c *Customer) Pay(amount decimal.Decimal) bool {
	if amount.IsNegative() || c.balance.LessThan(amount) {
		return false
	}
	c.balance = c.balance.Sub(amount)
	return true
}
