package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/project-geotagger/internal/entity"
)

// Table maps exact project names to reference coordinates. It is read-only
// after construction and safe for concurrent use.
type Table struct {
	entries map[string]entity.Coordinates
}

// NewTable copies entries into a new table.
func NewTable(entries map[string]entity.Coordinates) *Table {
	t := &Table{entries: make(map[string]entity.Coordinates, len(entries))}
	for k, v := range entries {
		t.entries[k] = v
	}
	return t
}

// DefaultTable holds the built-in reference projects.
func DefaultTable() *Table {
	return NewTable(map[string]entity.Coordinates{
		"Minyari Dome Project": {Lat: -22.867, Lon: 120.712},
		"Lake Hope Project":    {Lat: -32.45, Lon: 120.15},
	})
}

// Lookup is a case-sensitive exact match.
func (t *Table) Lookup(name string) (entity.Coordinates, bool) {
	c, ok := t.entries[name]
	return c, ok
}

func (t *Table) Len() int { return len(t.entries) }

// Locations lists the entries sorted by name.
func (t *Table) Locations() []entity.ProjectLocation {
	out := make([]entity.ProjectLocation, 0, len(t.entries))
	for name, c := range t.entries {
		out = append(out, entity.ProjectLocation{Name: name, Coordinates: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Merge returns a new table with other's entries layered over t's.
func (t *Table) Merge(other *Table) *Table {
	out := NewTable(t.entries)
	for k, v := range other.entries {
		out.entries[k] = v
	}
	return out
}

// LoadTable reads a name: [lat, lon] mapping from a .yaml/.yml or .json file.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coordinate table: %w", err)
	}
	var pairs map[string][]float64
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &pairs)
	default:
		err = yaml.Unmarshal(raw, &pairs)
	}
	if err != nil {
		return nil, fmt.Errorf("parse coordinate table %s: %w", path, err)
	}
	entries := make(map[string]entity.Coordinates, len(pairs))
	for name, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("coordinate table %s: %q needs [lat, lon], got %d values", path, name, len(p))
		}
		c := entity.Coordinates{Lat: p[0], Lon: p[1]}
		if !c.Valid() {
			return nil, fmt.Errorf("coordinate table %s: %q out of range %v", path, name, c)
		}
		entries[name] = c
	}
	return NewTable(entries), nil
}
