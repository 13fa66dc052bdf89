package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeList_WrappedAndBareAreEquivalent(t *testing.T) {
	entries := []any{
		map[string]any{"id": json.Number("1"), "title": "A"},
		map[string]any{"id": json.Number("2"), "title": "B"},
	}

	bare := NormalizeList(entries, MaxRecommendations)
	wrapped := NormalizeList(map[string]any{"recipes": entries}, MaxRecommendations)

	assert.Equal(t, bare, wrapped)
	assert.Len(t, bare, 2)
}

func TestNormalizeList_TruncatesInOrder(t *testing.T) {
	var entries []any
	for i := 0; i < 10; i++ {
		entries = append(entries, map[string]any{"id": json.Number(string(rune('0' + i)))})
	}

	list := NormalizeList(entries, MaxRecommendations)

	require.Len(t, list, 6)
	for i, r := range list {
		assert.Equal(t, json.Number(string(rune('0'+i))), ResolveID(r))
	}
}

func TestNormalizeList_UnexpectedShapes(t *testing.T) {
	assert.Empty(t, NormalizeList(nil, MaxRecommendations))
	assert.Empty(t, NormalizeList("not json", MaxRecommendations))
	assert.Empty(t, NormalizeList(map[string]any{"recipes": "nope"}, MaxRecommendations))
	assert.Empty(t, NormalizeList(map[string]any{}, MaxRecommendations))

	list := NormalizeList([]any{json.Number("5"), nil}, MaxRecommendations)
	require.Len(t, list, 2)
	assert.Nil(t, list[0])
	assert.Equal(t, "Recipe", ResolveTitle(list[0]))
}

func TestIngredientsAndSteps(t *testing.T) {
	r := Record{
		"ingredients": []any{
			"salt",
			map[string]any{"foodName": "Carrot"},
			map[string]any{"name": "Leek"},
			map[string]any{"ingredientName": "Rice"},
			map[string]any{"grams": json.Number("10")},
		},
		"steps": []any{"chop", "boil"},
	}

	ingredients, ok := Ingredients(r)
	require.True(t, ok)
	assert.Equal(t, []string{"salt", "Carrot", "Leek", "Rice", `{"grams":10}`}, ingredients)

	steps, ok := Steps(r)
	require.True(t, ok)
	assert.Equal(t, []string{"chop", "boil"}, steps)

	_, ok = Ingredients(Record{"ingredients": "salt"})
	assert.False(t, ok)
	_, ok = Steps(Record{})
	assert.False(t, ok)
}
