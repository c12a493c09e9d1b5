package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestFilter_Apply(t *testing.T) {
	records := []Record{
		{ID: "1", Name: "Greek Yogurt", Category: "Breakfast", Date: "2024-01-01", Measures: Measures{Calories: 100, Protein: 17}},
		{ID: "2", Name: "Pizza", Category: "dinner", Date: "2024-01-02", Measures: Measures{Calories: 800, Protein: 30}},
		{ID: "3", Name: "Apple", Category: "Snack", Date: "2024-01-03", Note: "with yogurt dip", Measures: Measures{Calories: 95}},
		{ID: "4", Name: "Ramen", Category: "Late night", Date: "2024-01-04", Measures: Measures{Calories: 450}},
	}
	agg := Aggregator{Kind: KindFood}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter keeps all", Filter{}, []string{"1", "2", "3", "4"}},
		{"query matches name and note", Filter{Query: "YOGURT"}, []string{"1", "3"}},
		{"category canonicalized", Filter{Category: "Dinner"}, []string{"2"}},
		{"category other", Filter{Category: "Other"}, []string{"4"}},
		{"calorie bounds inclusive", Filter{Min: ptr(95), Max: ptr(450)}, []string{"1", "3", "4"}},
		{"protein bound", Filter{Measure: MeasureProtein, Min: ptr(20)}, []string{"2"}},
		{"date range inclusive", Filter{From: "2024-01-02", To: "2024-01-03"}, []string{"2", "3"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.filter.Apply(records, agg)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{Measure: MeasureFats, Min: ptr(1), Max: ptr(2)}.Validate())
	assert.Error(t, Filter{Measure: "sugar"}.Validate())
	assert.Error(t, Filter{Min: ptr(10), Max: ptr(5)}.Validate())
	assert.Error(t, Filter{From: "01/02/2024"}.Validate())
	assert.Error(t, Filter{From: "2024-02-01", To: "2024-01-01"}.Validate())
}
