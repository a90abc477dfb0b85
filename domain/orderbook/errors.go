package orderbook

import "errors"

var (
	ErrUnknownOrder    = errors.New("orderbook: unknown order id")
	ErrDuplicateOrder  = errors.New("orderbook: order id already resting")
	ErrInvalidSide     = errors.New("orderbook: invalid side")
	ErrInvalidSymbol   = errors.New("orderbook: empty symbol")
	ErrInvalidPrice    = errors.New("orderbook: invalid price")
	ErrInvalidQuantity = errors.New("orderbook: quantity must be positive")

	// ErrPricePrecision is advisory: the price was parsed after rounding.
	ErrPricePrecision = errors.New("orderbook: more than 4 fractional digits")
)
