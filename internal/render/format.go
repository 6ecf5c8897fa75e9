package render

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Quote returns s as a single shell word. Words made only of safe characters
// are left bare; everything else is single-quoted with ' written as '\''.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool { return !safeRune(r) }) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func safeRune(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return true
	}
	return strings.ContainsRune("_@%+=:,./-", r)
}

// FormatFloat renders f in exponent form with prec digits after the point.
func FormatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'e', prec, 64)
}

// formatValue renders a cty value for a declaration line. Integral numbers
// keep their integer form unless floats is set, in which case every number
// uses FormatFloat. Lists are comma joined.
func formatValue(v cty.Value, prec int, floats bool) string {
	if v.IsNull() || !v.IsKnown() {
		return ""
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return strconv.FormatBool(v.True())
	case t == cty.Number:
		bf := v.AsBigFloat()
		if !floats {
			if i, acc := bf.Int64(); acc == big.Exact {
				return strconv.FormatInt(i, 10)
			}
		}
		f, _ := bf.Float64()
		return FormatFloat(f, prec)
	case t.IsListType(), t.IsTupleType(), t.IsSetType():
		parts := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			parts = append(parts, formatValue(el, prec, floats))
		}
		return strings.Join(parts, ",")
	}
	return ""
}
