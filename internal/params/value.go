package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the data type of a parameter. It never changes after creation.
type Kind int

const (
	KindInt Kind = iota
	KindDouble
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "char"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration data_type column onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int":
		return KindInt, nil
	case "double", "float":
		return KindDouble, nil
	case "char", "string":
		return KindString, nil
	default:
		return 0, fmt.Errorf("%w: unknown data type %q", ErrBadRow, s)
	}
}

// Value is a tagged union of the three supported parameter types.
type Value struct {
	Kind   Kind
	Int    int
	Double float64
	Str    string
}

func Int(v int) Value        { return Value{Kind: KindInt, Int: v} }
func Double(v float64) Value { return Value{Kind: KindDouble, Double: v} }
func String(v string) Value  { return Value{Kind: KindString, Str: v} }

// ParseValue parses raw configuration text as a value of kind k.
func ParseValue(k Kind, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch k {
	case KindInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: bad int %q", ErrBadRow, raw)
		}
		return Int(i), nil
	case KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: bad double %q", ErrBadRow, raw)
		}
		return Double(f), nil
	case KindString:
		return String(raw), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %v", ErrBadRow, k)
	}
}

// Format renders the value the way snapshot rows and the configuration file
// expect: integers in decimal, doubles with fixed high precision, strings
// verbatim.
func (v Value) Format() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindDouble:
		return strconv.FormatFloat(v.Double, 'f', 10, 64)
	default:
		return v.Str
	}
}

// Float returns the value as a float64 for numeric kinds.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindDouble:
		return v.Double, true
	default:
		return 0, false
	}
}

func (v Value) String() string { return v.Format() }
