package app

import (
	"testing"

	"github.com/cristalhq/aconfig"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(aconfig.Config{
		SkipFiles: true,
		SkipEnv:   true,
		SkipFlags: true,
	})
	require.NoError(t, err)

	assert.Empty(t, cfg.Catalog)
	assert.False(t, cfg.Expiry.Strict)
	assert.Equal(t, "text", cfg.Output.Format)

	fee, err := cfg.Shipping.FeeAmount()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(fee))
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CHECKOUT_CATALOG", "/tmp/catalog.yaml.gz")

	cfg, err := loadConfig(aconfig.Config{
		EnvPrefix: "CHECKOUT",
		SkipFiles: true,
		SkipFlags: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/catalog.yaml.gz", cfg.Catalog)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		fee     string
		format  string
		wantErr string
	}{
		{name: "ok", fee: "30", format: "text"},
		{name: "json", fee: "0", format: "json"},
		{name: "fractional fee", fee: "12.5", format: "text"},
		{name: "not a number", fee: "free", format: "text", wantErr: "parse shipping fee"},
		{name: "negative fee", fee: "-1", format: "text", wantErr: "must not be negative"},
		{name: "unknown format", fee: "30", format: "yaml", wantErr: "unknown output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Shipping: ShippingConfig{Fee: tt.fee},
				Output:   OutputConfig{Format: tt.format},
			}
			err := cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
