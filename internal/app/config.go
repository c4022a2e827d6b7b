package app

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/receipt"
)

// Config holds the demo configuration, loadable from environment variables
// (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Catalog  string `default:"" usage:"Catalog YAML file, optionally .gz compressed (empty uses the built-in demo catalog)" flag:"catalog"`
	Shipping ShippingConfig
	Expiry   ExpiryConfig
	Output   OutputConfig
}

// ShippingConfig controls the shipping fee.
type ShippingConfig struct {
	Fee string `default:"30" usage:"Flat shipping fee charged once per checkout that ships anything" flag:"shipping-fee"`
}

// FeeAmount parses Fee.
func (c ShippingConfig) FeeAmount() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(c.Fee)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse shipping fee %q", c.Fee)
	}
	if fee.IsNegative() {
		return decimal.Zero, errors.Errorf("shipping fee must not be negative, got %s", fee)
	}
	return fee, nil
}

// ExpiryConfig controls expiry parsing of catalog products.
type ExpiryConfig struct {
	Strict bool `default:"false" usage:"Reject malformed expiry specs instead of treating them as non-expiring" flag:"expiry-strict"`
}

// OutputConfig controls how checkouts are reported.
type OutputConfig struct {
	Format string `default:"text" usage:"Output format: text or json" flag:"format"`
}

func defaultLoaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	}
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files.
func LoadConfig() (*Config, error) {
	return loadConfig(defaultLoaderConfig())
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, ac)
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	if _, err := c.Shipping.FeeAmount(); err != nil {
		return err
	}

	switch c.Output.Format {
	case receipt.FormatText, receipt.FormatJSON:
	default:
		return errors.Errorf("unknown output format %q", c.Output.Format)
	}
	return nil
}
