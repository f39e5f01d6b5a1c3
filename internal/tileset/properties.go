package tileset

import (
	"iter"
	"maps"
	"slices"
	"strconv"

	"golang.org/x/text/cases"
)

// Properties are free-form string attributes. Keys are stored case-folded so
// "Walkable" and "walkable" name the same property. The zero value is an
// empty set; NewProperties is the only way to fill one.
type Properties struct {
	m map[string]string
}

func foldKey(k string) string {
	// Casers keep state; one per call keeps Properties safe for shared readers.
	return cases.Fold().String(k)
}

// NewProperties copies raw, folding every key. On a fold collision the
// lexically last original key wins so the result is deterministic.
func NewProperties(raw map[string]string) Properties {
	if len(raw) == 0 {
		return Properties{}
	}
	m := make(map[string]string, len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		m[foldKey(k)] = raw[k]
	}
	return Properties{m: m}
}

func (p Properties) Get(key string) (string, bool) {
	v, ok := p.m[foldKey(key)]
	return v, ok
}

func (p Properties) Len() int { return len(p.m) }

// All yields the folded keys in sorted order with their values.
func (p Properties) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range slices.Sorted(maps.Keys(p.m)) {
			if !yield(k, p.m[k]) {
				return
			}
		}
	}
}

// Map returns a copy keyed by folded keys, nil when empty.
func (p Properties) Map() map[string]string {
	if len(p.m) == 0 {
		return nil
	}
	return maps.Clone(p.m)
}

// Bool parses the property as a boolean. ok is false when the key is absent
// or the value does not parse.
func (p Properties) Bool(key string) (value, ok bool) {
	s, found := p.Get(key)
	if !found {
		return false, false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return b, true
}

// Float parses the property as a number.
func (p Properties) Float(key string) (float64, bool) {
	s, found := p.Get(key)
	if !found {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
