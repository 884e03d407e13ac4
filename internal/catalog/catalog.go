// Package catalog holds the dungeon definitions the matcher pools on.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/vogiaan1904/realm-lfg/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	ErrDungeonNotFound = errors.New("dungeon not found")
	ErrInvalidCatalog  = errors.New("invalid dungeon catalog")
)

type Dungeon struct {
	ID         uint32           `yaml:"id" json:"id"`
	Name       string           `yaml:"name" json:"name"`
	QueueType  models.QueueType `yaml:"queue_type" json:"queue_type"`
	MaxPlayers int              `yaml:"max_players" json:"max_players"`
	Slots      models.RoleSlots `yaml:"slots" json:"slots"`
	// RequiresRoles is false for content where any non-empty selection is
	// enough, such as raid browser listings and world PvP.
	RequiresRoles bool `yaml:"requires_roles" json:"requires_roles"`
}

func (d Dungeon) validate() error {
	if d.ID == 0 {
		return fmt.Errorf("%w: dungeon id must be non-zero", ErrInvalidCatalog)
	}
	if d.MaxPlayers <= 0 {
		return fmt.Errorf("%w: dungeon %d: max_players must be positive", ErrInvalidCatalog, d.ID)
	}
	if !d.QueueType.Valid() {
		return fmt.Errorf("%w: dungeon %d: unknown queue type %d", ErrInvalidCatalog, d.ID, d.QueueType)
	}
	if d.RequiresRoles && d.Slots.Total() != d.MaxPlayers {
		return fmt.Errorf("%w: dungeon %d: role slots %d do not add up to max_players %d",
			ErrInvalidCatalog, d.ID, d.Slots.Total(), d.MaxPlayers)
	}
	return nil
}

// RolesAssignable reports whether masks can fill this dungeon's seats.
func (d Dungeon) RolesAssignable(masks []models.RoleMask) bool {
	if !d.RequiresRoles {
		for _, m := range masks {
			if !m.HasCombatRole() {
				return false
			}
		}
		return len(masks) <= d.MaxPlayers
	}
	_, ok := models.AssignRoles(masks, d.Slots)
	return ok
}

// Assign returns one role per mask, or false when the seats cannot be filled.
// Content without role requirements assigns the first selected combat role.
func (d Dungeon) Assign(masks []models.RoleMask) ([]models.RoleMask, bool) {
	if d.RequiresRoles {
		return models.AssignRoles(masks, d.Slots)
	}
	if !d.RolesAssignable(masks) {
		return nil, false
	}
	out := make([]models.RoleMask, len(masks))
	for i, m := range masks {
		switch {
		case m.CanTank():
			out[i] = models.RoleTank
		case m.CanHeal():
			out[i] = models.RoleHealer
		default:
			out[i] = models.RoleDamage
		}
	}
	return out, true
}

type Catalog struct {
	dungeons map[uint32]Dungeon
}

type file struct {
	Dungeons []Dungeon `yaml:"dungeons"`
}

func New(dungeons []Dungeon) (*Catalog, error) {
	c := &Catalog{dungeons: make(map[uint32]Dungeon, len(dungeons))}
	for _, d := range dungeons {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.dungeons[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate dungeon id %d", ErrInvalidCatalog, d.ID)
		}
		c.dungeons[d.ID] = d
	}
	return c, nil
}

// Load reads a YAML catalog. An empty path yields the built-in default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(f.Dungeons) == 0 {
		return nil, fmt.Errorf("%w: no dungeons", ErrInvalidCatalog)
	}
	return New(f.Dungeons)
}

func (c *Catalog) Get(id uint32) (Dungeon, error) {
	d, ok := c.dungeons[id]
	if !ok {
		return Dungeon{}, fmt.Errorf("%w: %d", ErrDungeonNotFound, id)
	}
	return d, nil
}

// IDs returns every dungeon id in ascending order.
func (c *Catalog) IDs() []uint32 {
	ids := make([]uint32, 0, len(c.dungeons))
	for id := range c.dungeons {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Catalog) Len() int {
	return len(c.dungeons)
}
