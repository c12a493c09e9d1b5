package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
)

const favoritesKey = "favorites"

// draftPrefix namespaces saved filter drafts in the key-value store.
const draftPrefix = "draft:"

// Favorite is a food the user marked for quick access.
type Favorite struct {
	EntityID string    `json:"entity_id"`
	Name     string    `json:"name"`
	AddedAt  time.Time `json:"added_at"`
}

// Favorites manages the favorites list on top of a KV store.
type Favorites struct {
	kv KV
}

// NewFavorites returns a Favorites backed by kv.
func NewFavorites(kv KV) *Favorites {
	return &Favorites{kv: kv}
}

// List returns favorites sorted by name.
func (f *Favorites) List() ([]Favorite, error) {
	var list []Favorite
	if _, err := f.kv.Get(favoritesKey, &list); err != nil {
		return nil, fmt.Errorf("loading favorites: %w", err)
	}
	if list == nil {
		list = make([]Favorite, 0)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	return list, nil
}

// Add inserts a favorite, or renames it if the entity is already present.
func (f *Favorites) Add(entityID, name string) error {
	entityID = strings.TrimSpace(entityID)
	name = strings.TrimSpace(name)
	if entityID == "" {
		return fmt.Errorf("favorite needs an entity id")
	}
	if name == "" {
		name = entityID
	}

	list, err := f.List()
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].EntityID == entityID {
			list[i].Name = name
			return f.kv.Set(favoritesKey, list)
		}
	}
	list = append(list, Favorite{EntityID: entityID, Name: name, AddedAt: time.Now().UTC()})
	return f.kv.Set(favoritesKey, list)
}

// Remove deletes a favorite. It reports false if the entity was not listed.
func (f *Favorites) Remove(entityID string) (bool, error) {
	list, err := f.List()
	if err != nil {
		return false, err
	}
	out := list[:0]
	found := false
	for _, fav := range list {
		if fav.EntityID == strings.TrimSpace(entityID) {
			found = true
			continue
		}
		out = append(out, fav)
	}
	if !found {
		return false, nil
	}
	return true, f.kv.Set(favoritesKey, out)
}

// Contains reports whether entityID is a favorite.
func (f *Favorites) Contains(entityID string) (bool, error) {
	entityID = strings.TrimSpace(entityID)
	list, err := f.List()
	if err != nil {
		return false, err
	}
	for _, fav := range list {
		if fav.EntityID == entityID {
			return true, nil
		}
	}
	return false, nil
}

// Drafts stores named record filters so a search can be reused.
type Drafts struct {
	kv KV
}

// NewDrafts returns a Drafts backed by kv.
func NewDrafts(kv KV) *Drafts {
	return &Drafts{kv: kv}
}

// Save stores f under name, replacing any previous draft.
func (d *Drafts) Save(name string, f intake.Filter) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("draft needs a name")
	}
	return d.kv.Set(draftPrefix+name, f)
}

// Load returns the draft stored under name.
func (d *Drafts) Load(name string) (intake.Filter, bool, error) {
	var f intake.Filter
	ok, err := d.kv.Get(draftPrefix+strings.TrimSpace(name), &f)
	return f, ok, err
}

// Delete removes a draft.
func (d *Drafts) Delete(name string) error {
	return d.kv.Remove(draftPrefix + strings.TrimSpace(name))
}

// Names lists stored draft names.
func (d *Drafts) Names() ([]string, error) {
	keys, err := d.kv.Keys(draftPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, draftPrefix))
	}
	return names, nil
}
