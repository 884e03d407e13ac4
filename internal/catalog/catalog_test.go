package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vogiaan1904/realm-lfg/internal/models"
)

const sampleYAML = `
dungeons:
  - id: 10
    name: Test Keep
    queue_type: 1
    max_players: 5
    requires_roles: true
    slots:
      tanks: 1
      healers: 1
      damage: 3
  - id: 20
    name: Open Field
    queue_type: 5
    max_players: 10
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dungeons.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	d, err := c.Get(10)
	if err != nil {
		t.Fatalf("Get(10) error = %v", err)
	}
	if d.Name != "Test Keep" || d.Slots.Damage != 3 || !d.RequiresRoles {
		t.Errorf("unexpected dungeon %+v", d)
	}

	if _, err := c.Get(99); !errors.Is(err, ErrDungeonNotFound) {
		t.Errorf("Get(99) error = %v, want ErrDungeonNotFound", err)
	}
}

func TestParseRejectsBadCatalog(t *testing.T) {
	tests := map[string]string{
		"empty":      "dungeons: []",
		"zero id":    "dungeons:\n  - {id: 0, queue_type: 1, max_players: 5}",
		"bad queue":  "dungeons:\n  - {id: 1, queue_type: 9, max_players: 5}",
		"slot total": "dungeons:\n  - {id: 1, queue_type: 1, max_players: 5, requires_roles: true, slots: {tanks: 1}}",
		"duplicate":  "dungeons:\n  - {id: 1, queue_type: 5, max_players: 5}\n  - {id: 1, queue_type: 5, max_players: 5}",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(raw)); !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("Parse() error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	ids := c.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("IDs() not ascending: %v", ids)
		}
	}
	if _, err := c.Get(1); err != nil {
		t.Errorf("default catalog missing dungeon 1: %v", err)
	}
}

func TestRolesAssignableWithoutRequirements(t *testing.T) {
	d := Dungeon{ID: 1, QueueType: models.QueueTypeWorldPvP, MaxPlayers: 2}

	if !d.RolesAssignable([]models.RoleMask{models.RoleDamage, models.RoleTank}) {
		t.Error("combat selections rejected")
	}
	if d.RolesAssignable([]models.RoleMask{models.RoleLeader}) {
		t.Error("leader-only selection accepted")
	}
	if d.RolesAssignable([]models.RoleMask{models.RoleDamage, models.RoleDamage, models.RoleDamage}) {
		t.Error("over-capacity group accepted")
	}
}
