package results

import (
	"encoding/json"
	"math"
	"strconv"

	"golang.org/x/text/cases"
)

// Field is a logical input column.
type Field int

// Logical fields in the order they are reported when missing.
const (
	FieldTeam Field = iota
	FieldDiscipline
	FieldPoints
	FieldPlace
	FieldTime
	fieldCount
)

// fieldAliases lists the accepted keys per field, highest priority first.
// The first entry is the primary name used in error messages.
var fieldAliases = [fieldCount][]string{
	FieldTeam:       {"Team", "team"},
	FieldDiscipline: {"Disziplin", "discipline"},
	FieldPoints:     {"Punkte", "points"},
	FieldPlace:      {"Platz", "place"},
	FieldTime:       {"Uhr", "time"},
}

// Primary returns the primary key name of f.
func (f Field) Primary() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldAliases[f][0]
}

// Aliases returns a copy of the accepted key names of f, highest priority first.
func (f Field) Aliases() []string {
	if f < 0 || f >= fieldCount {
		return nil
	}
	return append([]string(nil), fieldAliases[f]...)
}

type aliasRef struct {
	field    Field
	priority int
}

// resolver maps row keys onto logical fields. A cases.Caser is stateful,
// so every aggregation run builds its own resolver.
type resolver struct {
	fold  cases.Caser
	index map[string]aliasRef
}

func newResolver() *resolver {
	r := &resolver{
		fold:  cases.Fold(),
		index: make(map[string]aliasRef),
	}
	for f := Field(0); f < fieldCount; f++ {
		for p, name := range fieldAliases[f] {
			key := r.fold.String(name)
			if _, ok := r.index[key]; ok {
				continue
			}
			r.index[key] = aliasRef{field: f, priority: p}
		}
	}
	return r
}

// missing reports the primary names of fields that have no alias among the
// keys of row. A row that is not a mapping misses every field.
func (r *resolver) missing(row any) []string {
	var present [fieldCount]bool
	if rec, ok := asRecord(row); ok {
		for k := range rec {
			if ref, ok := r.index[r.fold.String(k)]; ok {
				present[ref.field] = true
			}
		}
	}
	var out []string
	for f := Field(0); f < fieldCount; f++ {
		if !present[f] {
			out = append(out, f.Primary())
		}
	}
	return out
}

type resolvedRow struct {
	team       string
	discipline string
	points     int
	place      int
	time       string
}

// resolve picks, per field, the highest priority alias carrying a
// non-empty value. Keys folding to the same alias are ordered by their
// spelling so the result does not depend on map iteration order.
func (r *resolver) resolve(rec map[string]any) resolvedRow {
	type pick struct {
		key      string
		value    any
		priority int
		ok       bool
	}
	var picks [fieldCount]pick
	for k, v := range rec {
		ref, ok := r.index[r.fold.String(k)]
		if !ok || isEmptyValue(v) {
			continue
		}
		cur := &picks[ref.field]
		if cur.ok && (cur.priority < ref.priority || (cur.priority == ref.priority && cur.key < k)) {
			continue
		}
		*cur = pick{key: k, value: v, priority: ref.priority, ok: true}
	}
	return resolvedRow{
		team:       stringValue(picks[FieldTeam].value),
		discipline: stringValue(picks[FieldDiscipline].value),
		points:     ParseIntOrDefault(picks[FieldPoints].value, 0),
		place:      ParseIntOrDefault(picks[FieldPlace].value, 0),
		time:       stringValue(picks[FieldTime].value),
	}
}

// isEmptyValue reports values that do not count as present: nil, the empty
// string, false, and numeric zero or NaN.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0 || math.IsNaN(t)
	case float32:
		return t == 0 || math.IsNaN(float64(t))
	case int:
		return t == 0
	case int8:
		return t == 0
	case int16:
		return t == 0
	case int32:
		return t == 0
	case int64:
		return t == 0
	case uint:
		return t == 0
	case uint8:
		return t == 0
	case uint16:
		return t == 0
	case uint32:
		return t == 0
	case uint64:
		return t == 0
	default:
		return false
	}
}

// asRecord accepts the mapping shapes produced by encoding/json and yaml.v3.
func asRecord(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[stringValue(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// stringValue renders scalar values as text; composite values and false
// become the empty string.
func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		if s {
			return "true"
		}
		return ""
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}
