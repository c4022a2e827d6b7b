// Package checkout validates, prices, ships and settles a cart for a
// customer as a single all-or-nothing operation.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/shipping"
)

// Stage is a step of the checkout state machine.
type Stage string

const (
	StageValidating  Stage = "validating"
	StagePricing     Stage = "pricing"
	StageAuthorizing Stage = "authorizing"
	StageShipping    Stage = "shipping"
	StageSettling    Stage = "settling"
	StageDone        Stage = "done"
	StageRejected    Stage = "rejected"
)

// IsTerminal reports whether no further transition is possible.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageRejected
}

func (s Stage) String() string {
	return string(s)
}

var (
	// ErrEmptyCart is returned when checking out a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentDeclined is returned when the customer refuses a payment that
	// passed authorization. It indicates the balance changed mid-checkout.
	ErrPaymentDeclined = errors.New("payment declined after authorization")
)

// InsufficientFundsError indicates the customer balance does not cover the
// order total.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s", e.Required, e.Available)
}

// RejectedError wraps the cause of a rejected checkout with the stage that
// rejected it.
type RejectedError struct {
	Stage Stage
	Err   error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("checkout rejected while %s: %s", e.Stage, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// ReceiptLine is an itemized receipt entry.
type ReceiptLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Receipt describes a settled checkout. Balance is the customer balance
// after payment and is only set once the checkout is done.
type Receipt struct {
	ID        uuid.UUID
	Customer  string
	Lines     []ReceiptLine
	Subtotal  decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	Balance   decimal.Decimal
	Notice    *shipping.Notice
	CreatedAt time.Time
}

// Notifier receives the observable side effects of a checkout.
type Notifier interface {
	// ShipmentNotice is called once per checkout that ships anything.
	ShipmentNotice(ctx context.Context, n shipping.Notice)
	// Receipt is called before payment is taken.
	Receipt(ctx context.Context, r *Receipt)
	// Settled is called after stock and balance were updated.
	Settled(ctx context.Context, r *Receipt)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) ShipmentNotice(context.Context, shipping.Notice) {}
func (NopNotifier) Receipt(context.Context, *Receipt) {}
func (NopNotifier) Settled(context.Context, *Receipt) {}
