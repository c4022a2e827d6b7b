// Package expiry turns relative expiry specifications such as "15d" or "-2h"
// into absolute instants.
package expiry

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Unit is the trailing letter of an expiry specification.
type Unit rune

const (
	// UnitDay is a 24 hour day.
	UnitDay Unit = 'd'
	// UnitHour is one hour.
	UnitHour Unit = 'h'
	// UnitMonth is approximated as 30 days.
	UnitMonth Unit = 'm'
)

const day = 24 * time.Hour

// Known reports whether u is one of the supported units.
func (u Unit) Known() bool {
	return u == UnitDay || u == UnitHour || u == UnitMonth
}

// Duration returns the length of one unit. Unknown units count as days.
func (u Unit) Duration() time.Duration {
	switch u {
	case UnitHour:
		return time.Hour
	case UnitMonth:
		return 30 * day
	default:
		return day
	}
}

// InvalidSpecError indicates an expiry specification that does not match
// the ['-'] digits unit grammar.
type InvalidSpecError struct {
	Spec   string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid expiry %q: %s", e.Spec, e.Reason)
}

// Spec is a parsed expiry specification.
type Spec struct {
	Value int64
	Unit  Unit
	Past  bool
}

// Offset returns the signed distance from the resolution instant.
func (s Spec) Offset() time.Duration {
	d := time.Duration(s.Value) * s.Unit.Duration()
	if s.Past {
		return -d
	}
	return d
}

// ParseSpec parses a non-empty specification of the form ['-'] digits unit.
// A trailing non-digit that is not a known unit is accepted; callers decide
// how to treat it (see Unit.Known).
func ParseSpec(spec string) (Spec, error) {
	var s Spec

	rest := spec
	if len(rest) > 0 && rest[0] == '-' {
		s.Past = true
		rest = rest[1:]
	}
	unit, size := utf8.DecodeLastRuneInString(rest)
	if size == len(rest) {
		return Spec{}, &InvalidSpecError{Spec: spec, Reason: "expected digits followed by a unit"}
	}
	switch {
	case unit >= '0' && unit <= '9':
		return Spec{}, &InvalidSpecError{Spec: spec, Reason: "missing unit"}
	case unit == utf8.RuneError && size <= 1:
		return Spec{}, &InvalidSpecError{Spec: spec, Reason: "unit is not valid UTF-8"}
	}
	s.Unit = Unit(unit)

	digits := rest[:len(rest)-size]
	for i := range len(digits) {
		if digits[i] < '0' || digits[i] > '9' {
			return Spec{}, &InvalidSpecError{Spec: spec, Reason: "amount is not a whole number"}
		}
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Spec{}, &InvalidSpecError{Spec: spec, Reason: "amount out of range"}
	}
	if v > math.MaxInt64/int64(s.Unit.Duration()) {
		return Spec{}, &InvalidSpecError{Spec: spec, Reason: "amount out of range"}
	}
	s.Value = v

	return s, nil
}

// IsExpired reports whether now is strictly after at. A nil instant never
// expires.
func IsExpired(at *time.Time, now time.Time) bool {
	if at == nil {
		return false
	}
	return now.After(*at)
}

// Resolver resolves specifications relative to its clock.
type Resolver struct {
	lg  *zap.Logger
	now func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver using the wall clock.
func NewResolver(lg *zap.Logger, opts ...Option) *Resolver {
	if lg == nil {
		lg = zap.NewNop()
	}
	r := &Resolver{lg: lg, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the absolute instant for spec, or nil when the product
// never expires. Invalid specifications are logged and treated as
// non-expiring.
func (r *Resolver) Resolve(spec string) *time.Time {
	at, err := r.ResolveStrict(spec)
	if err != nil {
		r.lg.Warn("Invalid expiry, treating as non-expiring",
			zap.String("spec", spec),
			zap.Error(err),
		)
		return nil
	}
	return at
}

// ResolveStrict is like Resolve but returns *InvalidSpecError for malformed
// specifications. An empty spec yields a nil instant and no error.
func (r *Resolver) ResolveStrict(spec string) (*time.Time, error) {
	if spec == "" {
		return nil, nil
	}

	s, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	if !s.Unit.Known() {
		r.lg.Warn("Unknown expiry unit, using days",
			zap.String("spec", spec),
			zap.String("unit", string(rune(s.Unit))),
		)
	}

	at := r.now().Add(s.Offset())
	return &at, nil
}
