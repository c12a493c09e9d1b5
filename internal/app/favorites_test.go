package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFavorites_Empty(t *testing.T) {
	output.SetNoColor(true)
	t.Cleanup(func() { output.SetNoColor(false) })

	var buf bytes.Buffer
	require.NoError(t, listFavorites(&buf, openTestDB(t)))
	assert.Contains(t, buf.String(), "No favorites yet.")
	assert.NotContains(t, buf.String(), "Saved filters")
}

func TestListFavorites_WithDrafts(t *testing.T) {
	output.SetNoColor(true)
	t.Cleanup(func() { output.SetNoColor(false) })

	db := openTestDB(t)
	require.NoError(t, store.NewFavorites(db).Add("10", "Oats"))
	require.NoError(t, store.NewDrafts(db).Save("lunches", intake.Filter{Category: "Lunch"}))

	var buf bytes.Buffer
	require.NoError(t, listFavorites(&buf, db))
	assert.Contains(t, buf.String(), "Oats")
	assert.Contains(t, buf.String(), "Saved filters: lunches")
}

func TestListFavorites_JSON(t *testing.T) {
	flagJSON = true
	t.Cleanup(func() { flagJSON = false })

	db := openTestDB(t)
	require.NoError(t, store.NewFavorites(db).Add("10", "Oats"))

	var buf bytes.Buffer
	require.NoError(t, listFavorites(&buf, db))

	var got struct {
		Favorites []store.Favorite `json:"favorites"`
		Drafts    []string         `json:"drafts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Favorites, 1)
	assert.Equal(t, "10", got.Favorites[0].EntityID)
	assert.Empty(t, got.Drafts)
}

func TestAddFavorite_AddThenRename(t *testing.T) {
	db := openTestDB(t)

	var buf bytes.Buffer
	require.NoError(t, addFavorite(&buf, db, "10", "Oats"))
	assert.Equal(t, "Added 10 to favorites.\n", buf.String())

	buf.Reset()
	require.NoError(t, addFavorite(&buf, db, " 10 ", "Rolled oats"))
	assert.Equal(t, "Updated favorite 10.\n", buf.String())

	favs, err := store.NewFavorites(db).List()
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "Rolled oats", favs[0].Name)
}
