// Package recipe holds the loosely-shaped recipe records returned by the
// calorie service and the rules for reading them.
//
// The service does not agree with itself on field names, so identifiers and
// titles are resolved through ordered candidate lists instead of struct tags.
package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a recipe as decoded from JSON. Numbers are json.Number.
type Record map[string]any

// idFields lists identifier candidates in priority order.
var idFields = []string{"id", "recipeId", "recipeID", "recipe_id"}

// titleFields lists title candidates in priority order.
var titleFields = []string{
	"title",
	"name",
	"recipeName",
	"recipe_title",
	"recipeTitle",
	"label",
	"foodName",
	"food_name",
	"foodTitle",
}

// DefaultTitle is shown when nothing better can be resolved.
const DefaultTitle = "Recipe"

// ResolveID returns the first non-nil identifier candidate, or nil.
func ResolveID(r Record) any {
	if r == nil {
		return nil
	}
	for _, field := range idFields {
		if v, ok := r[field]; ok && v != nil {
			return v
		}
	}
	return nil
}

// ResolveTitle returns the first truthy title candidate. Without one it falls
// back to "Recipe <id>" and finally to "Recipe". It never returns "".
func ResolveTitle(r Record) string {
	if r == nil {
		return DefaultTitle
	}
	for _, field := range titleFields {
		if v := r[field]; Truthy(v) {
			return FormatValue(v)
		}
	}
	if id := ResolveID(r); id != nil {
		return DefaultTitle + " " + FormatValue(id)
	}
	return DefaultTitle
}

// Merge overlays summary on top of detail; summary fields win.
func Merge(summary, detail Record) Record {
	out := make(Record, len(summary)+len(detail))
	for k, v := range detail {
		out[k] = v
	}
	for k, v := range summary {
		out[k] = v
	}
	return out
}

// AsRecord returns v as a Record when it is a JSON object.
func AsRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, m != nil
	case map[string]any:
		return Record(m), m != nil
	default:
		return nil, false
	}
}

// Truthy reports whether v would pass a JavaScript truthiness test.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t != ""
		}
		return f != 0 && !math.IsNaN(f)
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

// FormatValue renders a decoded JSON value for display.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		if s, err := Stringify(t); err == nil {
			return s
		}
		return fmt.Sprint(t)
	}
}

// IDKey returns a comparable key for an identifier. 101 and "101" differ.
func IDKey(id any) string {
	if id == nil {
		return ""
	}
	s, err := Stringify(id)
	if err != nil {
		return fmt.Sprintf("%#v", id)
	}
	return s
}

// Stringify encodes v as compact JSON without HTML escaping.
func Stringify(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
