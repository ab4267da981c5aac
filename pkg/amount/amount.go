package amount

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// ============================================================================
// Token amounts
// ============================================================================
//
// Amounts are unsigned 256-bit integers in base units. One whole token is
// 10^Decimals base units. They are stored and serialized as decimal strings
// so that no precision is lost in the database or in JSON.
//
// ============================================================================

const (
	Decimals = 18

	// BasisPoints is the denominator of fee rates (10000 = 100%).
	BasisPoints = 10000
)

var ErrInvalid = errors.New("amount: invalid value")

var unit = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

// Amount is a non-negative token quantity.
type Amount struct {
	v uint256.Int
}

func Zero() Amount { return Amount{} }

// New returns an amount of v base units.
func New(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// Tokens returns n whole tokens.
func Tokens(n uint64) Amount {
	var a Amount
	a.v.Mul(uint256.NewInt(n), unit)
	return a
}

// Max is the largest representable amount. Allowances set to Max are unlimited.
func Max() Amount {
	var a Amount
	a.v.SetAllOne()
	return a
}

// Parse reads a base-10 string of base units.
func Parse(s string) (Amount, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return Amount{v: *v}, nil
}

func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) String() string { return a.v.Dec() }

func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) IsMax() bool {
	m := Max()
	return a.v.Eq(&m.v)
}

func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) Equal(b Amount) bool { return a.v.Eq(&b.v) }

func (a Amount) LessThan(b Amount) bool { return a.v.Lt(&b.v) }

// Add returns a+b and whether the sum overflowed.
func (a Amount) Add(b Amount) (Amount, bool) {
	var r Amount
	_, overflow := r.v.AddOverflow(&a.v, &b.v)
	return r, overflow
}

// Sub returns a-b and whether the subtraction underflowed.
func (a Amount) Sub(b Amount) (Amount, bool) {
	var r Amount
	_, underflow := r.v.SubOverflow(&a.v, &b.v)
	return r, underflow
}

// MulDiv returns floor(a * num / den). den must be non-zero.
func (a Amount) MulDiv(num, den uint64) Amount {
	var r Amount
	r.v.MulDivOverflow(&a.v, uint256.NewInt(num), uint256.NewInt(den))
	return r
}

// Bps returns floor(a * bps / 10000).
func (a Amount) Bps(bps uint64) Amount {
	return a.MulDiv(bps, BasisPoints)
}

func (a Amount) Big() *big.Int { return a.v.ToBig() }

// Float64 is lossy and only meant for metrics.
func (a Amount) Float64() float64 {
	f, _ := new(big.Float).SetInt(a.v.ToBig()).Float64()
	return f
}

// ============================================================================
// database/sql and JSON
// ============================================================================

func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.parseInto(v)
	case []byte:
		return a.parseInto(string(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("%w: negative value %d", ErrInvalid, v)
		}
		*a = New(uint64(v))
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalid, src)
	}
}

func (Amount) GormDataType() string { return "string" }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	return a.parseInto(s)
}

func (a *Amount) parseInto(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
