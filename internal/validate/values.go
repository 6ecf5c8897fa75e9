// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package validate

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/vk/palacegen/internal/profile"
	"github.com/zclconf/go-cty/cty"
)

// known reports whether v carries a concrete value that can be inspected.
func known(v cty.Value) bool {
	return v != cty.NilVal && v.IsWhollyKnown() && !v.IsNull()
}

func isList(v cty.Value) bool {
	t := v.Type()
	return t.IsListType() || t.IsTupleType() || t.IsSetType()
}

// numbers returns the elements of a list of numbers.
func numbers(v cty.Value) ([]*big.Float, bool) {
	var out []*big.Float
	for it := v.ElementIterator(); it.Next(); {
		_, el := it.Element()
		if !known(el) || el.Type() != cty.Number {
			return nil, false
		}
		out = append(out, el.AsBigFloat())
	}
	return out, true
}

// checkNumeric accepts a number or a list of numbers, the shapes of a
// material property.
func checkNumeric(v cty.Value) string {
	switch {
	case !known(v):
		return "value must be a number or a list of numbers"
	case v.Type() == cty.Number:
		return ""
	case isList(v):
		if _, ok := numbers(v); ok {
			return ""
		}
	}
	return "value must be a number or a list of numbers"
}

// checkScalarOrList accepts any primitive or a list of primitives.
func checkScalarOrList(v cty.Value) string {
	if !known(v) {
		return "value must be set"
	}
	if v.Type().IsPrimitiveType() {
		return ""
	}
	if isList(v) {
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			if !known(el) || !el.Type().IsPrimitiveType() {
				return "list elements must be plain values"
			}
		}
		return ""
	}
	return "value must be a plain value or a list of plain values"
}

// checkAttributes accepts a non-empty list of positive integers.
func checkAttributes(v cty.Value) string {
	const msg = "attributes must be a non-empty list of positive integers"
	if !known(v) || !isList(v) || v.LengthInt() == 0 {
		return msg
	}
	nums, ok := numbers(v)
	if !ok {
		return msg
	}
	for _, n := range nums {
		if !n.IsInt() || n.Sign() <= 0 {
			return msg
		}
	}
	return ""
}

// checkOption checks one solver option value against its declared kind and
// bounds.
func checkOption(spec *profile.OptionSpec, v cty.Value) string {
	if !known(v) {
		return "value must be set"
	}
	switch spec.Kind {
	case profile.KindString:
		if v.Type() != cty.String {
			return "value must be a string"
		}
	case profile.KindBool:
		if v.Type() != cty.Bool {
			return "value must be true or false"
		}
	case profile.KindEnum:
		if v.Type() != cty.String || !slices.Contains(spec.Values, v.AsString()) {
			return fmt.Sprintf("value must be one of %s", strings.Join(spec.Values, ", "))
		}
	case profile.KindInteger, profile.KindNumber:
		if v.Type() != cty.Number {
			return "value must be a number"
		}
		bf := v.AsBigFloat()
		if spec.Kind == profile.KindInteger && !bf.IsInt() {
			return "value must be an integer"
		}
		f, _ := bf.Float64()
		if !spec.InRange(f) {
			return fmt.Sprintf("value %s is outside %s", bf.Text('g', -1), spec.BoundsText())
		}
	case profile.KindRange:
		if !isList(v) || v.LengthInt() != 2 {
			return "value must be a [start, end] pair"
		}
		nums, ok := numbers(v)
		if !ok {
			return "range bounds must be numbers"
		}
		if nums[0].Cmp(nums[1]) >= 0 {
			return "range start must be less than its end"
		}
		for _, n := range nums {
			f, _ := n.Float64()
			if !spec.InRange(f) {
				return fmt.Sprintf("range bound %s is outside %s", n.Text('g', -1), spec.BoundsText())
			}
		}
	}
	return ""
}
