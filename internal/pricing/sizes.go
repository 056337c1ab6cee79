package pricing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnparseableSize = errors.New("unparseable size")

type UnparseableSizeError struct {
	Label  string
	Reason string
}

func (e *UnparseableSizeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("unparseable size %q", e.Label)
	}
	return fmt.Sprintf("unparseable size %q: %s", e.Label, e.Reason)
}

func (e *UnparseableSizeError) Is(target error) bool { return target == ErrUnparseableSize }

type Dimension int

const (
	Mass Dimension = iota + 1
	Volume
	Count
)

func (d Dimension) String() string {
	switch d {
	case Mass:
		return "mass"
	case Volume:
		return "volume"
	case Count:
		return "count"
	default:
		return "unknown"
	}
}

type unit struct {
	dim    Dimension
	factor decimal.Decimal
}

var (
	one      = decimal.NewFromInt(1)
	thousand = decimal.NewFromInt(1000)
	milli    = decimal.New(1, -3)
)

// units maps a suffix onto its base unit: grams, millilitres or pieces.
var units = map[string]unit{
	"mg": {Mass, milli}, "g": {Mass, one}, "gm": {Mass, one}, "gms": {Mass, one},
	"gram": {Mass, one}, "grams": {Mass, one}, "kg": {Mass, thousand}, "kgs": {Mass, thousand},

	"ml": {Volume, one}, "l": {Volume, thousand}, "ltr": {Volume, thousand},
	"litre": {Volume, thousand}, "litres": {Volume, thousand},
	"liter": {Volume, thousand}, "liters": {Volume, thousand},

	"pc": {Count, one}, "pcs": {Count, one}, "piece": {Count, one}, "pieces": {Count, one},
}

var sizeRe = regexp.MustCompile(`^(\d+(?:\.\d+)?|\.\d+)\s*([a-z]+)$`)

// Size is a pack size normalised to its base unit.
type Size struct {
	Label    string
	Dim      Dimension
	Quantity decimal.Decimal
}

func ParseSize(label string) (Size, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return Size{}, &UnparseableSizeError{Label: label, Reason: "expected <number><unit>"}
	}

	u, ok := units[m[2]]
	if !ok {
		return Size{}, &UnparseableSizeError{Label: label, Reason: "unknown unit " + m[2]}
	}

	n, err := decimal.NewFromString(m[1])
	if err != nil {
		return Size{}, &UnparseableSizeError{Label: label, Reason: err.Error()}
	}
	if !n.IsPositive() {
		return Size{}, &UnparseableSizeError{Label: label, Reason: "size must be positive"}
	}

	return Size{Label: label, Dim: u.dim, Quantity: n.Mul(u.factor)}, nil
}
