package app

import (
	"context"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/catalog"
	"github.com/xenking/kart-checkout/internal/domain/cart"
	"github.com/xenking/kart-checkout/internal/domain/checkout"
	"github.com/xenking/kart-checkout/internal/domain/customer"
	"github.com/xenking/kart-checkout/internal/domain/expiry"
	"github.com/xenking/kart-checkout/internal/domain/shipping"
	"github.com/xenking/kart-checkout/internal/receipt"
)

// Run loads the catalog and plays every scenario through checkout, writing
// the report to stdout. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	r, err := NewRunner(ctx, Options{
		Config:         cfg,
		Logger:         lg,
		Out:            os.Stdout,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return err
	}
	return r.RunScenarios(ctx)
}

// Options wires a Runner. Nil providers fall back to no-op telemetry.
type Options struct {
	Config         *Config
	Logger         *zap.Logger
	Out            io.Writer
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Runner plays catalog scenarios.
type Runner struct {
	catalog *catalog.Catalog
	svc     *checkout.Service
	out     receipt.Writer
	lg      *zap.Logger
}

// NewRunner loads the configured catalog and builds the checkout service.
func NewRunner(ctx context.Context, opts Options) (*Runner, error) {
	cfg := opts.Config
	lg := opts.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	lg.Info("Initializing",
		zap.String("catalog", cfg.Catalog),
		zap.String("format", cfg.Output.Format),
		zap.Bool("expiry_strict", cfg.Expiry.Strict),
	)

	fee, err := cfg.Shipping.FeeAmount()
	if err != nil {
		return nil, err
	}

	loader := catalog.NewLoader(lg.Named("catalog"), expiry.NewResolver(lg.Named("expiry")), cfg.Expiry.Strict)
	var cat *catalog.Catalog
	if cfg.Catalog == "" {
		cat, err = loader.LoadDefault()
	} else {
		cat, err = loader.LoadFile(cfg.Catalog)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	out, err := receipt.New(cfg.Output.Format, opts.Out)
	if err != nil {
		return nil, err
	}

	svc, err := checkout.NewService(checkout.Options{
		Shipping:       shipping.NewCalculator(fee),
		Notifier:       out,
		Logger:         lg.Named("checkout"),
		TracerProvider: opts.TracerProvider,
		MeterProvider:  opts.MeterProvider,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create checkout service")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Runner{catalog: cat, svc: svc, out: out, lg: lg}, nil
}

// RunScenarios plays every scenario in catalog order. A scenario that fails
// to add an item or to check out is reported and the next one runs.
func (r *Runner) RunScenarios(ctx context.Context) error {
	for i, s := range r.catalog.Scenarios() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.runScenario(ctx, i+1, s)
	}
	if err := r.out.Err(); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}

func (r *Runner) runScenario(ctx context.Context, n int, s catalog.Scenario) {
	lg := r.lg.With(zap.String("scenario", s.Title))
	r.out.Header(n, s.Title)

	cust, err := customer.New(s.Customer, s.Balance)
	if err != nil {
		r.out.Error(err)
		return
	}

	c := cart.New(lg.Named("cart"))
	for _, sel := range s.Items {
		p, err := r.catalog.Product(sel.Product)
		if err == nil {
			err = c.Add(p, sel.Quantity)
		}
		if err != nil {
			lg.Info("Add to cart failed", zap.String("product", sel.Product), zap.Error(err))
			r.out.Error(err)
			return
		}
		r.out.Added(p.Name(), sel.Quantity)
	}

	if _, err := r.svc.Checkout(ctx, cust, c); err != nil {
		var rejErr *checkout.RejectedError
		if errors.As(err, &rejErr) {
			err = rejErr.Err
		}
		r.out.Error(err)
	}
}
