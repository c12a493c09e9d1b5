package store

import (
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_CreatesFileAndMigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "nutriwatch.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Set("k", 1))
	require.NoError(t, db.Close())

	// Reopening runs migrations again without error and keeps data.
	db, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var v int
	ok, err := db.Get("k", &v)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestKV_SetGetRemove(t *testing.T) {
	db := openTestDB(t)

	type form struct {
		Name  string `json:"name"`
		Goals []int  `json:"goals"`
	}

	var got form
	ok, err := db.Get("onboarding", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Set("onboarding", form{Name: "Sam", Goals: []int{2000, 2500}}))
	ok, err = db.Get("onboarding", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, form{Name: "Sam", Goals: []int{2000, 2500}}, got)

	require.NoError(t, db.Set("onboarding", form{Name: "Alex"}))
	ok, err = db.Get("onboarding", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alex", got.Name)

	require.NoError(t, db.Remove("onboarding"))
	require.NoError(t, db.Remove("onboarding"))
	ok, err = db.Get("onboarding", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, db.Set("  ", 1))
}

func TestKV_GetDecodeError(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Set("n", "text"))

	var n int
	_, err := db.Get("n", &n)
	assert.Error(t, err)
}

func TestKV_Keys(t *testing.T) {
	db := openTestDB(t)
	for _, k := range []string{"draft:b", "draft:a", "favorites", "draftx"} {
		require.NoError(t, db.Set(k, true))
	}

	keys, err := db.Keys("draft:")
	require.NoError(t, err)
	assert.Equal(t, []string{"draft:a", "draft:b"}, keys)

	all, err := db.Keys("")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestKV_KeysNonASCIIPrefix(t *testing.T) {
	db := openTestDB(t)
	for _, k := range []string{"draft:café-lunch", "draft:café", "draft:cafe", "draft:crème"} {
		require.NoError(t, db.Set(k, true))
	}

	keys, err := db.Keys("draft:café")
	require.NoError(t, err)
	assert.Equal(t, []string{"draft:café", "draft:café-lunch"}, keys)
}

func TestFavorites(t *testing.T) {
	favs := NewFavorites(openTestDB(t))

	list, err := favs.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, favs.Add("7", "oatmeal"))
	require.NoError(t, favs.Add("3", "Banana"))
	require.NoError(t, favs.Add("7", "Oatmeal"))
	assert.Error(t, favs.Add(" ", "nothing"))

	list, err = favs.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Banana", list[0].Name)
	assert.Equal(t, "Oatmeal", list[1].Name)
	assert.False(t, list[0].AddedAt.IsZero())

	ok, err := favs.Contains("3")
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := favs.Remove("3")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = favs.Remove("3")
	require.NoError(t, err)
	assert.False(t, removed)

	list, err = favs.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDrafts(t *testing.T) {
	drafts := NewDrafts(openTestDB(t))

	lower := 100.0
	f := intake.Filter{Query: "yogurt", Category: "Breakfast", Min: &lower}
	require.NoError(t, drafts.Save("morning", f))
	require.NoError(t, drafts.Save("late", intake.Filter{Category: "Snack"}))
	assert.Error(t, drafts.Save("", f))

	got, ok, err := drafts.Load("morning")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "yogurt", got.Query)
	require.NotNil(t, got.Min)
	assert.Equal(t, 100.0, *got.Min)

	names, err := drafts.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"late", "morning"}, names)

	require.NoError(t, drafts.Delete("late"))
	_, ok, err = drafts.Load("late")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshots(t *testing.T) {
	db := openTestDB(t)

	none, err := db.GetSnapshotN("food", 1)
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := db.CreateSnapshot("food", 7, "dev")
	require.NoError(t, err)
	require.NoError(t, db.InsertSnapshotMetric(first, "mean_calories", 1500))

	second, err := db.CreateSnapshot("food", 7, "dev")
	require.NoError(t, err)
	require.NoError(t, db.InsertSnapshotMetric(second, "mean_calories", 1650))
	require.NoError(t, db.InsertSnapshotMetric(second, "mean_protein", 110))

	_, err = db.CreateSnapshot("water", 30, "dev")
	require.NoError(t, err)

	latest, err := db.GetSnapshotN("food", 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second, latest.ID)
	assert.Equal(t, 7, latest.WindowDays)
	assert.False(t, latest.TakenAt.IsZero())

	prev, err := db.GetSnapshotN("food", 2)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, first, prev.ID)

	metrics, err := db.GetSnapshotMetrics(second)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"mean_calories": 1650, "mean_protein": 110}, metrics)

	list, err := db.ListSnapshots("food", 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
