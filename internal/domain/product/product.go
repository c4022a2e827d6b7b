// Package product defines the sellable items of the catalog and their stock.
package product

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/expiry"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInvalidProduct is returned by constructors for negative prices,
// quantities or weights.
var ErrInvalidProduct = errors.New("invalid product")

// ExpiredItemError indicates the product is past its expiry instant.
type ExpiredItemError struct {
	Name string
}

func (e *ExpiredItemError) Error() string {
	return fmt.Sprintf("product %s is expired", e.Name)
}

// InsufficientStockError indicates more units were requested than are
// available.
type InsufficientStockError struct {
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

// Item is a sellable unit. The set of implementations is closed:
// *ShippableProduct and *DigitalProduct.
//
// Items are compared by identity; callers must hold them by pointer.
type Item interface {
	Name() string
	Price() decimal.Decimal
	Quantity() int
	ExpiresAt() *time.Time
	IsExpired(now time.Time) bool
	// ReduceQuantity subtracts qty from the available quantity without any
	// bounds check.
	ReduceQuantity(qty int)
	RequiresShipping() bool

	item()
}

type base struct {
	name      string
	price     decimal.Decimal
	quantity  int
	expiresAt *time.Time
}

func newBase(name string, price decimal.Decimal, quantity int, expiresAt *time.Time) (base, error) {
	if price.IsNegative() {
		return base{}, errors.Wrapf(ErrInvalidProduct, "%s: negative price %s", name, price)
	}
	if quantity < 0 {
		return base{}, errors.Wrapf(ErrInvalidProduct, "%s: negative quantity %d", name, quantity)
	}
	return base{
		name:      name,
		price:     price,
		quantity:  quantity,
		expiresAt: expiresAt,
	}, nil
}

func (b *base) Name() string { return b.name }
func (b *base) Price() decimal.Decimal { return b.price }
func (b *base) Quantity() int { return b.quantity }
func (b *base) ExpiresAt() *time.Time { return b.expiresAt }
func (b *base) ReduceQuantity(qty int) { b.quantity -= qty }
func (b *base) IsExpired(now time.Time) bool { return expiry.IsExpired(b.expiresAt, now) }
func (b *base) item() {}

// ShippableProduct is a physical product that has to be shipped.
type ShippableProduct struct {
	base
	weight decimal.Decimal
}

var _ Item = (*ShippableProduct)(nil)

// NewShippable creates a shippable product. weight is in kilograms;
// a nil expiresAt means the product never expires.
func NewShippable(name string, price decimal.Decimal, quantity int, weight decimal.Decimal, expiresAt *time.Time) (*ShippableProduct, error) {
	b, err := newBase(name, price, quantity, expiresAt)
	if err != nil {
		return nil, err
	}
	if weight.IsNegative() {
		return nil, errors.Wrapf(ErrInvalidProduct, "%s: negative weight %s", name, weight)
	}
	return &ShippableProduct{base: b, weight: weight}, nil
}

// RequiresShipping always returns true.
func (p *ShippableProduct) RequiresShipping() bool { return true }

// Weight returns the unit weight in kilograms.
func (p *ShippableProduct) Weight() decimal.Decimal { return p.weight }

// DigitalProduct is delivered without shipping, e.g. a scratch card code.
type DigitalProduct struct {
	base
}

var _ Item = (*DigitalProduct)(nil)

// NewDigital creates a digital product.
func NewDigital(name string, price decimal.Decimal, quantity int, expiresAt *time.Time) (*DigitalProduct, error) {
	b, err := newBase(name, price, quantity, expiresAt)
	if err != nil {
		return nil, err
	}
	return &DigitalProduct{base: b}, nil
}

// RequiresShipping always returns false.
func (p *DigitalProduct) RequiresShipping() bool { return false }
