// Package catalog holds the museum's artwork records and the ways they are
// loaded, validated, exported and synchronised.
package catalog

import (
	"errors"
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/museetour/internal/models"
)

// UnknownRoom is used to group artworks that are not assigned to a room
const UnknownRoom = "Salle inconnue"

var (
	ErrNotFound      = errors.New("artwork not found")
	ErrDuplicateID   = errors.New("duplicate artwork id")
	// ErrQRRefConflict means a label reference points at more than one artwork
	ErrQRRefConflict = errors.New("conflicting qr_code_ref")
)

// Catalog is an in-memory, concurrency-safe collection of artworks keyed by ID
type Catalog struct {
	mu       sync.RWMutex
	artworks map[string]*models.Artwork
	byQRRef  map[string]string
}

// New builds a catalog from already validated artworks
func New(artworks []models.Artwork) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(artworks); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace validates artworks and swaps them in as the whole catalog.
// On error the current contents are left untouched.
func (c *Catalog) Replace(artworks []models.Artwork) error {
	if err := Validate(artworks); err != nil {
		return err
	}

	byID := make(map[string]*models.Artwork, len(artworks))
	byQR := make(map[string]string, len(artworks))
	for i := range artworks {
		a := artworks[i]
		byID[a.ID] = &a
		byQR[a.QRRef()] = a.ID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.artworks = byID
	c.byQRRef = byQR
	return nil
}

// Merge returns base with each update replacing the artwork of the same ID,
// or appended when the ID is new. base is not modified.
func Merge(base, updates []models.Artwork) []models.Artwork {
	merged := append([]models.Artwork(nil), base...)
	index := make(map[string]int, len(merged))
	for i, a := range merged {
		index[a.ID] = i
	}
	for _, u := range updates {
		if i, ok := index[u.ID]; ok {
			merged[i] = u
			continue
		}
		index[u.ID] = len(merged)
		merged = append(merged, u)
	}
	return merged
}

// Get returns a copy of the artwork with the given ID
func (c *Catalog) Get(id string) (models.Artwork, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.artworks[id]
	if !ok {
		return models.Artwork{}, ErrNotFound
	}
	return *a, nil
}

// Has reports whether an artwork with the given ID exists
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.artworks[id]
	return ok
}

// LookupRef returns the ID of the artwork whose label carries ref, falling
// back to ref as an artwork ID
func (c *Catalog) LookupRef(ref string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, ok := c.byQRRef[ref]; ok {
		return id, true
	}
	if _, ok := c.artworks[ref]; ok {
		return ref, true
	}
	return "", false
}

// GetByQRRef looks an artwork up by the reference printed on its label,
// falling back to the artwork ID
func (c *Catalog) GetByQRRef(ref string) (models.Artwork, error) {
	id, ok := c.LookupRef(ref)
	if !ok {
		return models.Artwork{}, ErrNotFound
	}
	return c.Get(id)
}

// List returns all artworks ordered by room, then ID
func (c *Catalog) List() []models.Artwork {
	c.mu.RLock()
	list := make([]models.Artwork, 0, len(c.artworks))
	for _, a := range c.artworks {
		list = append(list, *a)
	}
	c.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		ri, rj := roomOf(list[i]), roomOf(list[j])
		if ri != rj {
			return ri < rj
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// Len returns the number of artworks
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.artworks)
}

// ByRoom groups the artworks by the hall they hang in
func (c *Catalog) ByRoom() map[string][]models.Artwork {
	rooms := make(map[string][]models.Artwork)
	for _, a := range c.List() {
		room := roomOf(a)
		rooms[room] = append(rooms[room], a)
	}
	return rooms
}

// RoomNames returns the room names in sorted order
func (c *Catalog) RoomNames() []string {
	rooms := c.ByRoom()
	names := make([]string, 0, len(rooms))
	for name := range rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func roomOf(a models.Artwork) string {
	if a.Room == "" {
		return UnknownRoom
	}
	return a.Room
}
