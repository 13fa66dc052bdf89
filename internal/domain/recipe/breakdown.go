package recipe

import "sort"

// RawResponseKey labels a breakdown payload that was not a JSON object.
const RawResponseKey = "Raw response"

// Breakdown maps an ingredient label to its estimated calories.
type Breakdown map[string]any

// BreakdownRow is one ingredient line for display.
type BreakdownRow struct {
	Ingredient string
	Calories   string
}

// NormalizeBreakdown keeps a JSON object as-is and wraps anything else
// (arrays, strings, numbers, null) under RawResponseKey as serialized JSON.
func NormalizeBreakdown(payload any) Breakdown {
	if m, ok := AsRecord(payload); ok {
		return Breakdown(m)
	}
	raw, err := Stringify(payload)
	if err != nil {
		raw = FormatValue(payload)
	}
	return Breakdown{RawResponseKey: raw}
}

// Rows returns the breakdown sorted by ingredient label.
func (b Breakdown) Rows() []BreakdownRow {
	rows := make([]BreakdownRow, 0, len(b))
	for ingredient, cals := range b {
		rows = append(rows, BreakdownRow{Ingredient: ingredient, Calories: FormatValue(cals)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ingredient < rows[j].Ingredient })
	return rows
}
