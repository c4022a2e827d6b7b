package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestResolver(t *testing.T) (*Resolver, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewResolver(zap.New(core), WithClock(func() time.Time { return fixedNow }))
	return r, logs
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		want     time.Time
		wantWarn bool
	}{
		{name: "days in the future", spec: "15d", want: fixedNow.Add(15 * 24 * time.Hour)},
		{name: "hours in the future", spec: "6h", want: fixedNow.Add(6 * time.Hour)},
		{name: "months are 30 days", spec: "2m", want: fixedNow.Add(60 * 24 * time.Hour)},
		{name: "leading minus is the past", spec: "-2d", want: fixedNow.Add(-48 * time.Hour)},
		{name: "past hours", spec: "-1h", want: fixedNow.Add(-time.Hour)},
		{name: "zero amount resolves to now", spec: "0d", want: fixedNow},
		{name: "unknown unit falls back to days", spec: "3w", want: fixedNow.Add(72 * time.Hour), wantWarn: true},
		{name: "multi-byte unknown unit", spec: "5é", want: fixedNow.Add(5 * 24 * time.Hour), wantWarn: true},
		{name: "multi-byte unknown unit in the past", spec: "-2é", want: fixedNow.Add(-48 * time.Hour), wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, logs := newTestResolver(t)

			got := r.Resolve(tt.spec)

			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "expected %s, got %s", tt.want, *got)
			if tt.wantWarn {
				require.Equal(t, 1, logs.Len())
				assert.Equal(t, "Unknown expiry unit, using days", logs.All()[0].Message)
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestResolve_NoExpiry(t *testing.T) {
	r, logs := newTestResolver(t)

	assert.Nil(t, r.Resolve(""))
	assert.Zero(t, logs.Len())
}

func TestResolve_MalformedDegradesToNoExpiry(t *testing.T) {
	specs := []string{"d", "-", "-d", "xd", "1.5d", "+5d", "--2d", "15", "99999999999999999999d", "9999999999m"}

	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			r, logs := newTestResolver(t)

			assert.Nil(t, r.Resolve(spec))
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, "Invalid expiry, treating as non-expiring", logs.All()[0].Message)
		})
	}
}

func TestResolveStrict(t *testing.T) {
	r, _ := newTestResolver(t)

	at, err := r.ResolveStrict("")
	require.NoError(t, err)
	assert.Nil(t, at)

	_, err = r.ResolveStrict("abc")
	var specErr *InvalidSpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, "abc", specErr.Spec)
}

func TestResolve_DirectionRelativeToNow(t *testing.T) {
	r := NewResolver(nil)

	for _, spec := range []string{"1d", "1h", "1m", "7x"} {
		before := time.Now()
		at := r.Resolve(spec)
		require.NotNil(t, at)
		assert.True(t, at.After(before), "%s should be in the future", spec)

		past := r.Resolve("-" + spec)
		require.NotNil(t, past)
		assert.True(t, past.Before(time.Now()), "-%s should be in the past", spec)
	}
}

func TestParseSpec(t *testing.T) {
	s, err := ParseSpec("-12h")
	require.NoError(t, err)
	assert.Equal(t, Spec{Value: 12, Unit: UnitHour, Past: true}, s)
	assert.Equal(t, -12*time.Hour, s.Offset())

	s, err = ParseSpec("4q")
	require.NoError(t, err)
	assert.False(t, s.Unit.Known())
	assert.Equal(t, 4*24*time.Hour, s.Offset())

	s, err = ParseSpec("-2é")
	require.NoError(t, err)
	assert.Equal(t, Spec{Value: 2, Unit: 'é', Past: true}, s)
	assert.False(t, s.Unit.Known())
	assert.Equal(t, -48*time.Hour, s.Offset())

	var specErr *InvalidSpecError
	_, err = ParseSpec("é")
	require.ErrorAs(t, err, &specErr)
	_, err = ParseSpec("5\xff")
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, "unit is not valid UTF-8", specErr.Reason)
}

func TestResolve_UnknownUnitWarning(t *testing.T) {
	r, logs := newTestResolver(t)

	require.NotNil(t, r.Resolve("-2é"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "é", fields["unit"])
	assert.Equal(t, "-2é", fields["spec"])
}

func TestIsExpired(t *testing.T) {
	at := fixedNow

	assert.False(t, IsExpired(nil, fixedNow.Add(1000*time.Hour)))
	assert.False(t, IsExpired(&at, fixedNow.Add(-time.Second)))
	assert.False(t, IsExpired(&at, fixedNow), "expiry instant itself is not expired")
	assert.True(t, IsExpired(&at, fixedNow.Add(time.Nanosecond)))
}

func TestIsExpired_Monotonic(t *testing.T) {
	at := fixedNow
	t1 := fixedNow.Add(time.Minute)
	require.True(t, IsExpired(&at, t1))

	for _, step := range []time.Duration{time.Nanosecond, time.Hour, 365 * 24 * time.Hour} {
		assert.True(t, IsExpired(&at, t1.Add(step)))
	}
}
