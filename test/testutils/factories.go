// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"encoding/json"
	"strconv"

	"github.com/alchemorsel/recipeclient/internal/domain/recipe"
	"github.com/brianvoe/gofakeit/v6"
)

// RecordFactory builds recipe records shaped like the calorie service returns them.
type RecordFactory struct {
	faker  *gofakeit.Faker
	nextID int
}

// NewRecordFactory creates a new record factory with a seeded faker
func NewRecordFactory(seed int64) *RecordFactory {
	return &RecordFactory{
		faker:  gofakeit.New(seed),
		nextID: 100,
	}
}

// Summary returns a summary with a numeric id, title and total calories.
func (f *RecordFactory) Summary() recipe.Record {
	f.nextID++
	return recipe.Record{
		"id":            json.Number(strconv.Itoa(f.nextID)),
		"title":         f.faker.Dessert(),
		"category":      f.faker.RandomString([]string{"breakfast", "lunch", "dinner"}),
		"totalCalories": json.Number(strconv.Itoa(f.faker.Number(100, 900))),
	}
}

// Summaries returns n summaries with increasing ids.
func (f *RecordFactory) Summaries(n int) []recipe.Record {
	out := make([]recipe.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.Summary())
	}
	return out
}

// Detail returns a detail payload with ingredients and steps.
func (f *RecordFactory) Detail() recipe.Record {
	return recipe.Record{
		"title":       f.faker.Dinner(),
		"ingredients": []any{f.faker.Vegetable(), map[string]any{"foodName": f.faker.Fruit()}},
		"steps":       []any{f.faker.Sentence(4), f.faker.Sentence(5)},
	}
}

// AsJSONArray converts records into the []any shape produced by decoding JSON.
func AsJSONArray(records []recipe.Record) []any {
	out := make([]any, 0, len(records))
	for _, r := range records {
		out = append(out, map[string]any(r))
	}
	return out
}
