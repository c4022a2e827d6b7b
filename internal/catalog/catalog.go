// Package catalog loads products and demo scenarios from YAML.
package catalog

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xenking/kart-checkout/internal/domain/expiry"
	"github.com/xenking/kart-checkout/internal/domain/product"
)

// Default is the embedded demo catalog.
//
//go:embed default.yaml
var Default []byte

// Product kinds.
const (
	KindShippable = "shippable"
	KindDigital   = "digital"
)

type productDoc struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Price    string `yaml:"price"`
	Quantity int    `yaml:"quantity"`
	Weight   string `yaml:"weight"`
	Expiry   string `yaml:"expiry"`
}

type scenarioDoc struct {
	Title    string `yaml:"title"`
	Customer struct {
		Name    string `yaml:"name"`
		Balance string `yaml:"balance"`
	} `yaml:"customer"`
	Items []struct {
		Product  string `yaml:"product"`
		Quantity int    `yaml:"quantity"`
	} `yaml:"items"`
}

type document struct {
	Products  []productDoc  `yaml:"products"`
	Scenarios []scenarioDoc `yaml:"scenarios"`
}

// Selection is one add-to-cart request of a scenario.
type Selection struct {
	Product  string
	Quantity int
}

// Scenario is a scripted customer visit: the customer fills a cart with
// Items in order and checks out.
type Scenario struct {
	Title    string
	Customer string
	Balance  decimal.Decimal
	Items    []Selection
}

// Catalog holds the loaded products by name, in file order.
type Catalog struct {
	products  []product.Item
	byName    map[string]product.Item
	scenarios []Scenario
}

// Product returns the product called name.
func (c *Catalog) Product(name string) (product.Item, error) {
	p, ok := c.byName[name]
	if !ok {
		return nil, errors.Wrapf(product.ErrNotFound, "product %q", name)
	}
	return p, nil
}

// Products returns all products in file order.
func (c *Catalog) Products() []product.Item {
	return append([]product.Item(nil), c.products...)
}

// Scenarios returns the scripted visits in file order.
func (c *Catalog) Scenarios() []Scenario {
	return append([]Scenario(nil), c.scenarios...)
}

// Loader builds catalogs. Expiry specs resolve against the resolver clock at
// load time.
type Loader struct {
	resolver *expiry.Resolver
	strict   bool
	lg       *zap.Logger
}

// NewLoader creates a Loader. When strict is set, an invalid expiry spec fails
// the load instead of being treated as non-expiring.
func NewLoader(lg *zap.Logger, resolver *expiry.Resolver, strict bool) *Loader {
	if lg == nil {
		lg = zap.NewNop()
	}
	if resolver == nil {
		resolver = expiry.NewResolver(lg)
	}
	return &Loader{resolver: resolver, strict: strict, lg: lg}
}

// LoadDefault loads the embedded demo catalog.
func (l *Loader) LoadDefault() (*Catalog, error) {
	return l.Load(bytes.NewReader(Default))
}

// LoadFile loads a catalog file. Files ending in .gz are gzip-compressed.
func (l *Loader) LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	c, err := l.Load(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return c, nil
}

// Load decodes a YAML catalog from r.
func (l *Loader) Load(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode catalog")
	}

	c := &Catalog{byName: make(map[string]product.Item, len(doc.Products))}
	for i, pd := range doc.Products {
		p, err := l.product(pd)
		if err != nil {
			return nil, errors.Wrapf(err, "product #%d", i)
		}
		if _, dup := c.byName[p.Name()]; dup {
			return nil, errors.Errorf("product #%d: duplicate name %q", i, p.Name())
		}
		c.byName[p.Name()] = p
		c.products = append(c.products, p)
	}

	for i, sd := range doc.Scenarios {
		s, err := c.scenario(sd)
		if err != nil {
			return nil, errors.Wrapf(err, "scenario #%d", i)
		}
		c.scenarios = append(c.scenarios, s)
	}

	l.lg.Debug("Catalog loaded",
		zap.Int("products", len(c.products)),
		zap.Int("scenarios", len(c.scenarios)),
	)
	return c, nil
}

func (l *Loader) product(pd productDoc) (product.Item, error) {
	if pd.Name == "" {
		return nil, errors.Wrap(product.ErrInvalidProduct, "missing name")
	}
	price, err := decimal.NewFromString(pd.Price)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: parse price", pd.Name)
	}
	expiresAt, err := l.expiry(pd.Expiry)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: resolve expiry", pd.Name)
	}

	switch pd.Kind {
	case KindShippable, "":
		weight, err := decimal.NewFromString(pd.Weight)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: parse weight", pd.Name)
		}
		return product.NewShippable(pd.Name, price, pd.Quantity, weight, expiresAt)
	case KindDigital:
		return product.NewDigital(pd.Name, price, pd.Quantity, expiresAt)
	default:
		return nil, errors.Wrapf(product.ErrInvalidProduct, "%s: unknown kind %q", pd.Name, pd.Kind)
	}
}

func (l *Loader) expiry(spec string) (*time.Time, error) {
	if l.strict {
		return l.resolver.ResolveStrict(spec)
	}
	return l.resolver.Resolve(spec), nil
}

func (c *Catalog) scenario(sd scenarioDoc) (Scenario, error) {
	s := Scenario{Title: sd.Title, Customer: sd.Customer.Name, Balance: decimal.Zero}
	if sd.Customer.Balance != "" {
		b, err := decimal.NewFromString(sd.Customer.Balance)
		if err != nil {
			return Scenario{}, errors.Wrapf(err, "%s: parse balance", sd.Title)
		}
		s.Balance = b
	}
	for _, it := range sd.Items {
		if _, err := c.Product(it.Product); err != nil {
			return Scenario{}, errors.Wrapf(err, "%s", sd.Title)
		}
		s.Items = append(s.Items, Selection{Product: it.Product, Quantity: it.Quantity})
	}
	return s, nil
}
