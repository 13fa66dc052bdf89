package recipe

// MaxRecommendations caps how many recommendations are shown.
const MaxRecommendations = 6

// NormalizeList accepts either a bare JSON array or an object carrying a
// "recipes" array and returns at most limit records in payload order.
// Entries that are not objects become nil records.
func NormalizeList(payload any, limit int) []Record {
	var items []any
	switch t := payload.(type) {
	case []any:
		items = t
	case map[string]any:
		items, _ = t["recipes"].([]any)
	case Record:
		items, _ = t["recipes"].([]any)
	}

	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		r, _ := AsRecord(item)
		out = append(out, r)
	}
	return out
}

// Ingredients returns display labels for the record's "ingredients" array.
// The boolean is false when the field is not an array.
func Ingredients(r Record) ([]string, bool) {
	items, ok := r["ingredients"].([]any)
	if !ok {
		return nil, false
	}
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, ingredientLabel(item))
	}
	return labels, true
}

func ingredientLabel(item any) string {
	if s, ok := item.(string); ok {
		return s
	}
	if m, ok := AsRecord(item); ok {
		for _, field := range []string{"foodName", "name", "ingredientName"} {
			if v := m[field]; Truthy(v) {
				return FormatValue(v)
			}
		}
	}
	return FormatValue(item)
}

// Steps returns the record's "steps" array rendered for display.
func Steps(r Record) ([]string, bool) {
	items, ok := r["steps"].([]any)
	if !ok {
		return nil, false
	}
	steps := make([]string, 0, len(items))
	for _, item := range items {
		steps = append(steps, FormatValue(item))
	}
	return steps, true
}
