package orderbook

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of fractional digits a tick represents.
const PriceScale = 4

// Price is a fixed-point limit price counted in 1e-4 ticks.
// It also remembers how many fractional digits it was written with, so
// "10.00" prints back as "10.00" and "10" as "10". Comparison ignores that.
type Price struct {
	ticks  int64
	places int32
}

func NewPrice(ticks int64, places int32) Price {
	if places < 0 {
		places = 0
	}
	if places > PriceScale {
		places = PriceScale
	}
	return Price{ticks: ticks, places: places}
}

// ParsePrice parses a decimal string. Inputs with more than PriceScale
// fractional digits are rounded and returned together with ErrPricePrecision;
// the returned Price is still usable in that case.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Price{}, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	var places int32
	if exp := d.Exponent(); exp < 0 {
		places = -exp
	}

	var precisionErr error
	if places > PriceScale {
		d = d.Round(PriceScale)
		places = PriceScale
		precisionErr = fmt.Errorf("%w: %q", ErrPricePrecision, s)
	}

	scaled := d.Shift(PriceScale)
	if !scaled.BigInt().IsInt64() {
		return Price{}, fmt.Errorf("%w: %q out of range", ErrInvalidPrice, s)
	}
	return Price{ticks: scaled.IntPart(), places: places}, precisionErr
}

func (p Price) Ticks() int64  { return p.ticks }
func (p Price) Places() int32 { return p.places }

func (p Price) Decimal() decimal.Decimal {
	return decimal.New(p.ticks, -PriceScale)
}

func (p Price) IsPositive() bool { return p.ticks > 0 }

func (p Price) Equal(o Price) bool { return p.ticks == o.ticks }

func (p Price) Cmp(o Price) int {
	switch {
	case p.ticks < o.ticks:
		return -1
	case p.ticks > o.ticks:
		return 1
	default:
		return 0
	}
}

// String prints the price with the precision it was supplied with.
func (p Price) String() string {
	return p.Decimal().StringFixed(p.places)
}
