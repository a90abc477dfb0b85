package lineproto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"matchbook/domain/orderbook"
)

var (
	ErrEmptyCommand   = errors.New("lineproto: empty command")
	ErrUnknownCommand = errors.New("lineproto: unknown command")
	ErrFieldCount     = errors.New("lineproto: wrong field count")
	ErrBadNumber      = errors.New("lineproto: malformed integer field")
)

type Kind uint8

const (
	Insert Kind = iota + 1
	Amend
	Pull
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "INSERT"
	case Amend:
		return "AMEND"
	case Pull:
		return "PULL"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Command is one parsed input line. Fields that do not apply to Kind are
// left zero.
type Command struct {
	Kind    Kind
	Index   int // zero-based position in the batch
	OrderID uint64
	Symbol  string
	Side    orderbook.Side
	Price   orderbook.Price
	Qty     int64

	// PriceWarning is set when the price was accepted after rounding.
	PriceWarning error
}

// Line renders the command back in canonical comma form.
func (c Command) Line() string {
	switch c.Kind {
	case Insert:
		return fmt.Sprintf("INSERT,%d,%s,%s,%s,%d", c.OrderID, c.Symbol, c.Side, c.Price, c.Qty)
	case Amend:
		return fmt.Sprintf("AMEND,%d,%s,%d", c.OrderID, c.Price, c.Qty)
	case Pull:
		return fmt.Sprintf("PULL,%d", c.OrderID)
	default:
		return ""
	}
}

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// Parse decodes one command line. Fields may be separated by commas,
// whitespace or both. A price with more than four fractional digits is
// rounded and reported through Command.PriceWarning, not as an error.
func Parse(line string, index int) (Command, error) {
	f := splitFields(line)
	if len(f) == 0 {
		return Command{}, ErrEmptyCommand
	}

	cmd := Command{Index: index}
	var err error

	switch f[0] {
	case "INSERT":
		if len(f) != 6 {
			return Command{}, fmt.Errorf("%w: INSERT wants 6, got %d", ErrFieldCount, len(f))
		}
		cmd.Kind = Insert
		if cmd.OrderID, err = parseID(f[1]); err != nil {
			return Command{}, err
		}
		cmd.Symbol = f[2]
		if cmd.Side, err = orderbook.ParseSide(f[3]); err != nil {
			return Command{}, err
		}
		if err = cmd.setPrice(f[4]); err != nil {
			return Command{}, err
		}
		if cmd.Qty, err = parseQty(f[5]); err != nil {
			return Command{}, err
		}

	case "AMEND":
		if len(f) != 4 {
			return Command{}, fmt.Errorf("%w: AMEND wants 4, got %d", ErrFieldCount, len(f))
		}
		cmd.Kind = Amend
		if cmd.OrderID, err = parseID(f[1]); err != nil {
			return Command{}, err
		}
		if err = cmd.setPrice(f[2]); err != nil {
			return Command{}, err
		}
		if cmd.Qty, err = parseQty(f[3]); err != nil {
			return Command{}, err
		}

	case "PULL":
		if len(f) != 2 {
			return Command{}, fmt.Errorf("%w: PULL wants 2, got %d", ErrFieldCount, len(f))
		}
		cmd.Kind = Pull
		if cmd.OrderID, err = parseID(f[1]); err != nil {
			return Command{}, err
		}

	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, f[0])
	}

	return cmd, nil
}

func (c *Command) setPrice(s string) error {
	p, err := orderbook.ParsePrice(s)
	if err != nil && !errors.Is(err, orderbook.ErrPricePrecision) {
		return err
	}
	c.Price = p
	c.PriceWarning = err
	return nil
}

func parseID(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: order id %q", ErrBadNumber, s)
	}
	return v, nil
}

func parseQty(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q", ErrBadNumber, s)
	}
	return v, nil
}
