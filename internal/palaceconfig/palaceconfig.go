// Package palaceconfig builds the Palace config.json sidecar that sits next
// to the run script.
package palaceconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/profile"
	"github.com/vk/palacegen/internal/validate"
	"github.com/zclconf/go-cty/cty"
)

const (
	// DefaultProblemType is used when the job sets no "type" solver option.
	DefaultProblemType = "Eigenmode"
	// DefaultOutput is Palace's post-processing directory.
	DefaultOutput = "postpro"
)

// Document is a Palace configuration tree. Map keys are emitted in sorted
// order, so equal documents marshal to identical bytes.
type Document map[string]any

// Get returns the value at a dotted path such as "Solver.Linear.Tol".
func (d Document) Get(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func (d Document) set(path string, value any) {
	keys := strings.Split(path, ".")
	m := map[string]any(d)
	for _, key := range keys[:len(keys)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = value
}

// Build maps a validated job onto the Palace layout. Solver options land on
// the config.json paths the profile declares for them.
func Build(v *validate.Validated, p *profile.Profile) Document {
	if !v.Sealed() {
		panic("palaceconfig: build of an unvalidated configuration")
	}
	doc := Document{}
	doc.set("Problem.Type", DefaultProblemType)
	doc.set("Problem.Output", DefaultOutput)
	doc.set("Model.Mesh", v.RemoteMeshPath())

	materials := v.Materials()
	domains := make([]any, 0, len(materials))
	for _, m := range materials {
		entry := map[string]any{}
		for _, key := range config.SortedKeys(m.Properties) {
			entry[config.PascalCase(key)] = goValue(m.Properties[key])
		}
		entry["Attributes"] = ints(m.Attributes)
		domains = append(domains, entry)
	}
	doc.set("Domains.Materials", domains)
	doc.set("Boundaries", buildBoundaries(v, p))

	opts := v.SolverOptions()
	for _, key := range config.SortedKeys(opts) {
		spec, ok := p.Option(key)
		if !ok || len(spec.Sidecar) == 0 {
			continue
		}
		val := opts[key]
		switch spec.Kind {
		case profile.KindRange:
			bounds := floatValue(val).([]any)
			doc.set(spec.Sidecar[0], bounds[0])
			doc.set(spec.Sidecar[1], bounds[1])
		case profile.KindNumber:
			doc.set(spec.Sidecar[0], floatValue(val))
		default:
			doc.set(spec.Sidecar[0], goValue(val))
		}
	}
	return doc
}

func buildBoundaries(v *validate.Validated, p *profile.Profile) map[string]any {
	out := map[string]any{}
	next := map[string]int{}

	for _, bc := range v.BoundaryConditions() {
		bt, _ := p.Boundary(bc.Type)
		entry := map[string]any{}
		for _, key := range config.SortedKeys(bc.Params) {
			if key == "attributes" || key == "index" {
				continue
			}
			entry[config.PascalCase(key)] = goValue(bc.Params[key])
		}
		attrs := boundaryAttributes(v, bc)

		switch bt.Shape {
		case profile.ShapeObject:
			obj, _ := out[bt.Key].(map[string]any)
			if obj == nil {
				obj = map[string]any{}
				out[bt.Key] = obj
			}
			merged, _ := obj["Attributes"].([]any)
			for k, val := range entry {
				obj[k] = val
			}
			obj["Attributes"] = append(merged, attrs...)
		case profile.ShapeIndexed:
			next[bt.Key]++
			index := any(next[bt.Key])
			if idx, ok := bc.Params["index"]; ok {
				index = goValue(idx)
			}
			entry["Index"] = index
			entry["Attributes"] = attrs
			list, _ := out[bt.Key].([]any)
			out[bt.Key] = append(list, entry)
		default:
			entry["Attributes"] = attrs
			list, _ := out[bt.Key].([]any)
			out[bt.Key] = append(list, entry)
		}
	}
	return out
}

// boundaryAttributes prefers explicit attributes and falls back to the
// referenced region's.
func boundaryAttributes(v *validate.Validated, bc config.BoundaryCondition) []any {
	if attrs, ok := bc.Params["attributes"]; ok {
		return goValue(attrs).([]any)
	}
	if m, ok := v.Material(bc.Tag); ok {
		return ints(m.Attributes)
	}
	return []any{}
}

// Marshal renders the document as two-space indented JSON with a trailing
// newline.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return nil, fmt.Errorf("marshal palace config: %w", err)
	}
	return buf.Bytes(), nil
}

func ints(in []int) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// goValue converts a known cty value into plain JSON-encodable Go values.
func goValue(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		return number(v.AsBigFloat())
	case t.IsListType(), t.IsTupleType(), t.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			out = append(out, goValue(el))
		}
		return out
	case t.IsMapType(), t.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, el := it.Element()
			out[config.PascalCase(k.AsString())] = goValue(el)
		}
		return out
	}
	return nil
}

// floatValue is goValue for options declared as floating point: every
// number becomes a float64, whole or not.
func floatValue(v cty.Value) any {
	if v.IsKnown() && !v.IsNull() && v.Type() == cty.Number {
		f, _ := v.AsBigFloat().Float64()
		return f
	}
	out := goValue(v)
	if list, ok := out.([]any); ok {
		for i, el := range list {
			if n, ok := el.(int64); ok {
				list[i] = float64(n)
			}
		}
	}
	return out
}

func number(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return i
		}
	}
	out, _ := f.Float64()
	return out
}
