package catalog

import "github.com/vogiaan1904/realm-lfg/internal/models"

var fiveMan = models.RoleSlots{Tanks: 1, Healers: 1, Damage: 3}

var defaultDungeons = []Dungeon{
	{ID: 1, Name: "Ragefire Chasm", QueueType: models.QueueTypeDungeon, MaxPlayers: 5, Slots: fiveMan, RequiresRoles: true},
	{ID: 2, Name: "Wailing Caverns", QueueType: models.QueueTypeDungeon, MaxPlayers: 5, Slots: fiveMan, RequiresRoles: true},
	{ID: 3, Name: "The Deadmines", QueueType: models.QueueTypeDungeon, MaxPlayers: 5, Slots: fiveMan, RequiresRoles: true},
	{ID: 4, Name: "Shadowfang Keep", QueueType: models.QueueTypeDungeon, MaxPlayers: 5, Slots: fiveMan, RequiresRoles: true},
	{ID: 100, Name: "Molten Core", QueueType: models.QueueTypeRaidBrowser, MaxPlayers: 40, Slots: models.RoleSlots{Tanks: 4, Healers: 10, Damage: 26}, RequiresRoles: true},
	{ID: 101, Name: "Onyxia's Lair", QueueType: models.QueueTypeRaidBrowser, MaxPlayers: 40, Slots: models.RoleSlots{Tanks: 3, Healers: 10, Damage: 27}, RequiresRoles: true},
	{ID: 200, Name: "Theramore's Fall", QueueType: models.QueueTypeScenario, MaxPlayers: 3, Slots: models.RoleSlots{Damage: 3}},
	{ID: 300, Name: "Siege of Orgrimmar (Flex)", QueueType: models.QueueTypeFlex, MaxPlayers: 25, Slots: models.RoleSlots{Tanks: 2, Healers: 6, Damage: 17}, RequiresRoles: true},
	{ID: 400, Name: "Wintergrasp", QueueType: models.QueueTypeWorldPvP, MaxPlayers: 40},
}

// Default returns the built-in catalog used when no file is configured.
func Default() *Catalog {
	c, err := New(defaultDungeons)
	if err != nil {
		panic(err)
	}
	return c
}
