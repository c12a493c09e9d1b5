package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func food(id, date, category, entity string, cal float64) Record {
	return Record{
		ID:       id,
		EntityID: entity,
		Name:     entity,
		Category: category,
		Date:     date,
		Measures: Measures{Calories: cal},
		Kind:     KindFood,
	}
}

func TestAggregate_MergesSameFoodSameMeal(t *testing.T) {
	records := []Record{
		food("1", "2024-01-01", "Breakfast", "Egg", 70),
		food("2", "2024-01-01", "Breakfast", "Egg", 70),
	}

	days := Aggregator{Kind: KindFood}.Aggregate(records)
	require.Len(t, days, 1)

	day := days["2024-01-01"]
	require.NotNil(t, day)
	require.Len(t, day.Categories["Breakfast"], 1)

	entry := day.Categories["Breakfast"][0]
	assert.Equal(t, 140.0, entry.Measures.Calories)
	assert.Equal(t, 2, entry.Count)
	assert.Equal(t, []string{"1", "2"}, entry.RecordIDs)
	assert.Equal(t, 140.0, day.Totals.Calories)
}

func TestAggregate_DropsRecordsWithoutDate(t *testing.T) {
	records := []Record{
		food("1", "", "Lunch", "Rice", 200),
		food("2", "not-a-date", "Lunch", "Rice", 200),
		food("3", "2024-02-01", "Lunch", "Rice", 200),
	}

	days := Aggregator{Kind: KindFood}.Aggregate(records)
	require.Len(t, days, 1)
	assert.Equal(t, 200.0, days["2024-02-01"].Totals.Calories)
}

func TestAggregate_UnknownCategoryBecomesOther(t *testing.T) {
	records := []Record{
		food("1", "2024-01-01", "Brunch", "Toast", 100),
		food("2", "2024-01-01", "", "Apple", 50),
		food("3", "2024-01-01", "dinner", "Soup", 300),
	}

	days := Aggregator{Kind: KindFood}.Aggregate(records)
	day := days["2024-01-01"]

	assert.Len(t, day.Categories[CategoryOther], 2)
	assert.Len(t, day.Categories["Dinner"], 1)
	assert.ElementsMatch(t, []string{CategoryOther, "Dinner"}, day.CategoryNames())
}

func TestAggregate_PreserveCustomCategories(t *testing.T) {
	records := []Record{
		food("1", "2024-01-01", "Post-workout", "Shake", 250),
		food("2", "2024-01-01", "", "Apple", 50),
	}

	days := Aggregator{Kind: KindFood, PreserveCustom: true}.Aggregate(records)
	day := days["2024-01-01"]

	assert.Len(t, day.Categories["Post-workout"], 1)
	assert.Len(t, day.Categories[CategoryOther], 1)
}

func TestAggregate_DifferentEntityDoesNotMerge(t *testing.T) {
	records := []Record{
		food("1", "2024-01-01", "Lunch", "Rice", 200),
		food("2", "2024-01-01", "Lunch", "Beans", 150),
		food("3", "2024-01-01", "Dinner", "Rice", 200),
		food("4", "2024-01-02", "Lunch", "Rice", 200),
	}

	days := Aggregator{Kind: KindFood}.Aggregate(records)
	require.Len(t, days, 2)

	day := days["2024-01-01"]
	assert.Len(t, day.Categories["Lunch"], 2)
	assert.Len(t, day.Categories["Dinner"], 1)
	assert.Equal(t, 550.0, day.Totals.Calories)
	assert.Equal(t, 200.0, days["2024-01-02"].Totals.Calories)
}

func TestAggregate_DayTotalsEqualEntrySums(t *testing.T) {
	records := []Record{
		{ID: "1", EntityID: "a", Name: "Oats", Category: "Breakfast", Date: "2024-03-01",
			Measures: Measures{Calories: 150, Protein: 5, Carbs: 27, Fats: 3}},
		{ID: "2", EntityID: "b", Name: "Milk", Category: "Breakfast", Date: "2024-03-01",
			Measures: Measures{Calories: 120, Protein: 8, Carbs: 12, Fats: 5}},
		{ID: "3", EntityID: "a", Name: "Oats", Category: "Breakfast", Date: "2024-03-01",
			Measures: Measures{Calories: 150, Protein: 5, Carbs: 27, Fats: 3}},
		{ID: "4", EntityID: "c", Name: "Chicken", Category: "Dinner", Date: "2024-03-01",
			Measures: Measures{Calories: 330, Protein: 62, Fats: 7}},
	}

	days := Aggregator{Kind: KindFood}.Aggregate(records)
	day := days["2024-03-01"]

	var sum Measures
	var ids []string
	count := 0
	for _, e := range day.Entries() {
		sum = sum.Add(e.Measures)
		assert.Equal(t, e.Count, len(e.RecordIDs))
		count += e.Count
		ids = append(ids, e.RecordIDs...)
	}
	assert.Equal(t, day.Totals, sum)
	assert.Equal(t, len(records), count)
	assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, ids)
}

func TestAggregate_WaterMergesWholeDay(t *testing.T) {
	records := []Record{
		{ID: "w1", Date: "2024-05-01", Measures: Measures{VolumeML: 250}, Kind: KindWater},
		{ID: "w2", Date: "2024-05-01", Category: "Lunch", Measures: Measures{VolumeML: 500}, Kind: KindWater},
		{ID: "w3", Date: "2024-05-02", Measures: Measures{VolumeML: 330}, Kind: KindWater},
	}

	days := Aggregator{Kind: KindWater}.Aggregate(records)
	require.Len(t, days, 2)

	day := days["2024-05-01"]
	entries := day.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 750.0, entries[0].Measures.VolumeML)
	assert.Equal(t, 2, entries[0].Count)
	assert.Equal(t, 750.0, day.Totals.VolumeML)
}

func TestAggregate_LastWriteWinsOverwritesRatingAndNote(t *testing.T) {
	first := food("1", "2024-01-01", "Lunch", "Salad", 100)
	first.Rating = 2
	first.Note = "bland"
	second := food("2", "2024-01-01", "Lunch", "Salad", 100)
	second.Rating = 5
	third := food("3", "2024-01-01", "Lunch", "Salad", 100)
	third.Note = "  "

	days := Aggregator{Kind: KindFood}.Aggregate([]Record{first, second, third})
	entry := days["2024-01-01"].Categories["Lunch"][0]

	assert.Equal(t, 5, entry.Rating)
	assert.Equal(t, "bland", entry.Note)
	assert.Equal(t, 3, entry.Count)
}

func TestAggregate_KeepFirstStrategy(t *testing.T) {
	first := food("1", "2024-01-01", "Lunch", "Salad", 100)
	first.Rating = 2
	second := food("2", "2024-01-01", "Lunch", "Salad", 100)
	second.Rating = 5
	second.Note = "better"

	days := Aggregator{Kind: KindFood, Strategy: KeepFirst{}}.Aggregate([]Record{first, second})
	entry := days["2024-01-01"].Categories["Lunch"][0]

	assert.Equal(t, 2, entry.Rating)
	assert.Equal(t, "better", entry.Note)
	assert.Equal(t, 200.0, entry.Measures.Calories)
}

func TestAggregate_RejectDuplicateStrategy(t *testing.T) {
	records := []Record{
		food("1", "2024-01-01", "Lunch", "Salad", 100),
		food("2", "2024-01-01", "Lunch", "Salad", 100),
	}

	days := Aggregator{Kind: KindFood, Strategy: RejectDuplicate{}}.Aggregate(records)
	day := days["2024-01-01"]
	entry := day.Categories["Lunch"][0]

	assert.Equal(t, 1, entry.Count)
	assert.Equal(t, []string{"1"}, entry.RecordIDs)
	assert.Equal(t, 100.0, day.Totals.Calories)
}

func TestAggregate_WaterIgnoresRejectDuplicate(t *testing.T) {
	records := []Record{
		{ID: "w1", Date: "2024-05-01", Measures: Measures{VolumeML: 250}, Kind: KindWater},
		{ID: "w2", Date: "2024-05-01", Measures: Measures{VolumeML: 250}, Kind: KindWater},
	}

	days := Aggregator{Kind: KindWater, Strategy: RejectDuplicate{}}.Aggregate(records)
	assert.Equal(t, 500.0, days["2024-05-01"].Totals.VolumeML)
}

func TestStrategyByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", StrategyLastWriteWins},
		{"last-write-wins", StrategyLastWriteWins},
		{"Keep-First", StrategyKeepFirst},
		{"reject-duplicate", StrategyRejectDuplicate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := StrategyByName(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.Name())
		})
	}

	_, err := StrategyByName("newest")
	assert.Error(t, err)
}

func TestSortedDates(t *testing.T) {
	days := map[string]*AggregatedDay{
		"2024-01-03": {Date: "2024-01-03"},
		"2023-12-31": {Date: "2023-12-31"},
		"2024-01-01": {Date: "2024-01-01"},
	}
	assert.Equal(t, []string{"2023-12-31", "2024-01-01", "2024-01-03"}, SortedDates(days))
}
