package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/domain/cart"
	"github.com/xenking/kart-checkout/internal/domain/customer"
	"github.com/xenking/kart-checkout/internal/domain/product"
	"github.com/xenking/kart-checkout/internal/domain/shipping"
)

const instrumentationName = "github.com/xenking/kart-checkout/internal/domain/checkout"

// Options configures a Service. Zero fields get defaults.
type Options struct {
	Shipping       *shipping.Calculator
	Notifier       Notifier
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Now is the clock used to re-validate expiry. Defaults to time.Now.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.Shipping == nil {
		o.Shipping = shipping.NewCalculator(shipping.DefaultFee)
	}
	if o.Notifier == nil {
		o.Notifier = NopNotifier{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.TracerProvider == nil {
		o.TracerProvider = tracenoop.NewTracerProvider()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = metricnoop.NewMeterProvider()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Service runs checkouts. It is not safe for concurrent checkouts that share
// products or customers.
type Service struct {
	shipping *shipping.Calculator
	notifier Notifier
	lg       *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time

	completed metric.Int64Counter
	rejected  metric.Int64Counter
	amount    metric.Float64Histogram
}

// NewService creates a checkout Service.
func NewService(opts Options) (*Service, error) {
	opts.setDefaults()

	meter := opts.MeterProvider.Meter(instrumentationName)
	completed, err := meter.Int64Counter("checkout.completed",
		metric.WithDescription("Number of settled checkouts"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create completed counter")
	}
	rejected, err := meter.Int64Counter("checkout.rejected",
		metric.WithDescription("Number of rejected checkouts by stage and reason"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create rejected counter")
	}
	amount, err := meter.Float64Histogram("checkout.amount",
		metric.WithDescription("Amount charged per settled checkout"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create amount histogram")
	}

	return &Service{
		shipping:  opts.Shipping,
		notifier:  opts.Notifier,
		lg:        opts.Logger,
		tracer:    opts.TracerProvider.Tracer(instrumentationName),
		now:       opts.Now,
		completed: completed,
		rejected:  rejected,
		amount:    amount,
	}, nil
}

// Checkout re-validates the cart, prices it, takes payment, deducts stock
// and empties the cart. A rejected checkout returns *RejectedError and leaves
// the cart, product stock and customer balance untouched.
func (s *Service) Checkout(ctx context.Context, cust *customer.Customer, c *cart.Cart) (*Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Checkout",
		trace.WithAttributes(
			attribute.String("customer", cust.Name()),
			attribute.Int("lines", c.Len()),
		),
	)
	defer span.End()

	lg := s.lg.With(zap.String("customer", cust.Name()))

	receipt, stage, err := s.run(ctx, lg, cust, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.rejected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage.String()),
			attribute.String("reason", rejectReason(err)),
		))
		lg.Info("Checkout rejected", zap.Stringer("stage", stage), zap.Error(err))
		return nil, &RejectedError{Stage: stage, Err: err}
	}

	s.completed.Add(ctx, 1)
	s.amount.Record(ctx, receipt.Total.InexactFloat64())
	span.SetAttributes(attribute.String("receipt.id", receipt.ID.String()))
	lg.Info("Checkout completed",
		zap.Stringer("receipt", receipt.ID),
		zap.Stringer("total", receipt.Total),
		zap.Stringer("balance", receipt.Balance),
	)
	return receipt, nil
}

// run walks the state machine. On failure it returns the stage that
// rejected the checkout.
func (s *Service) run(ctx context.Context, lg *zap.Logger, cust *customer.Customer, c *cart.Cart) (*Receipt, Stage, error) {
	stage := StageValidating
	lg.Debug("Checkout stage", zap.Stringer("stage", stage))

	if c.IsEmpty() {
		return nil, stage, ErrEmptyCart
	}

	// Stock and expiry may have changed since the items were added.
	now := s.now()
	lines := c.Lines()
	var parcel []shipping.Item
	for _, l := range lines {
		if l.Item.IsExpired(now) {
			return nil, stage, &product.ExpiredItemError{Name: l.Item.Name()}
		}
		if l.Quantity > l.Item.Quantity() {
			return nil, stage, &product.InsufficientStockError{
				Name:      l.Item.Name(),
				Available: l.Item.Quantity(),
				Requested: l.Quantity,
			}
		}
		if !l.Item.RequiresShipping() {
			continue
		}
		unit, ok := l.Item.(shipping.Item)
		if !ok {
			return nil, stage, errors.Errorf("product %s requires shipping but has no weight", l.Item.Name())
		}
		for range l.Quantity {
			parcel = append(parcel, unit)
		}
	}

	stage = StagePricing
	lg.Debug("Checkout stage", zap.Stringer("stage", stage))

	subtotal := c.Subtotal()
	fee := s.shipping.Fee(parcel)
	total := subtotal.Add(fee)

	stage = StageAuthorizing
	lg.Debug("Checkout stage", zap.Stringer("stage", stage), zap.Stringer("total", total))

	if cust.Balance().LessThan(total) {
		return nil, stage, &InsufficientFundsError{Required: total, Available: cust.Balance()}
	}

	stage = StageShipping
	lg.Debug("Checkout stage", zap.Stringer("stage", stage), zap.Int("units", len(parcel)))

	var notice *shipping.Notice
	if len(parcel) > 0 {
		n := s.shipping.Notice(parcel)
		notice = &n
		s.notifier.ShipmentNotice(ctx, n)
	}

	stage = StageSettling
	lg.Debug("Checkout stage", zap.Stringer("stage", stage))

	receipt := &Receipt{
		ID:        uuid.New(),
		Customer:  cust.Name(),
		Lines:     make([]ReceiptLine, len(lines)),
		Subtotal:  subtotal,
		Shipping:  fee,
		Total:     total,
		Notice:    notice,
		CreatedAt: now,
	}
	for i, l := range lines {
		receipt.Lines[i] = ReceiptLine{
			Name:      l.Item.Name(),
			Quantity:  l.Quantity,
			UnitPrice: l.Item.Price(),
			Total:     l.Total(),
		}
	}
	s.notifier.Receipt(ctx, receipt)

	if !cust.Pay(total) {
		return nil, stage, ErrPaymentDeclined
	}
	for _, l := range lines {
		l.Item.ReduceQuantity(l.Quantity)
	}

	stage = StageDone
	lg.Debug("Checkout stage", zap.Stringer("stage", stage))

	c.Clear()
	receipt.Balance = cust.Balance()
	s.notifier.Settled(ctx, receipt)

	return receipt, stage, nil
}

// rejectReason maps a rejection cause to a low-cardinality metric label.
func rejectReason(err error) string {
	var (
		expiredErr *product.ExpiredItemError
		stockErr   *product.InsufficientStockError
		fundsErr   *InsufficientFundsError
	)
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &expiredErr):
		return "expired_item"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &fundsErr):
		return "insufficient_funds"
	case errors.Is(err, ErrPaymentDeclined):
		return "payment_declined"
	default:
		return "internal"
	}
}
