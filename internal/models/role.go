package models

import "strings"

// RoleMask is the client's role selection bit set. Bit values are part of
// the wire protocol.
type RoleMask uint8

const (
	RoleNone   RoleMask = 0x00
	RoleLeader RoleMask = 0x01
	RoleTank   RoleMask = 0x02
	RoleHealer RoleMask = 0x04
	RoleDamage RoleMask = 0x08

	roleAll    = RoleLeader | RoleTank | RoleHealer | RoleDamage
	roleCombat = RoleTank | RoleHealer | RoleDamage
)

func (m RoleMask) Has(r RoleMask) bool { return m&r == r }
func (m RoleMask) IsLeader() bool      { return m.Has(RoleLeader) }
func (m RoleMask) CanTank() bool       { return m.Has(RoleTank) }
func (m RoleMask) CanHeal() bool       { return m.Has(RoleHealer) }
func (m RoleMask) CanDamage() bool     { return m.Has(RoleDamage) }

// Combat strips the leader flag.
func (m RoleMask) Combat() RoleMask { return m & roleCombat }

// HasCombatRole reports whether at least one of tank, healer or damage is set.
func (m RoleMask) HasCombatRole() bool { return m.Combat() != RoleNone }

// Valid reports whether m only uses known bits.
func (m RoleMask) Valid() bool { return m&^roleAll == 0 }

func (m RoleMask) String() string {
	if m == RoleNone {
		return "none"
	}
	var parts []string
	if m.IsLeader() {
		parts = append(parts, "leader")
	}
	if m.CanTank() {
		parts = append(parts, "tank")
	}
	if m.CanHeal() {
		parts = append(parts, "healer")
	}
	if m.CanDamage() {
		parts = append(parts, "damage")
	}
	return strings.Join(parts, "|")
}

// RoleSlots is the number of tank, healer and damage seats in a group.
type RoleSlots struct {
	Tanks   int `json:"tanks" yaml:"tanks"`
	Healers int `json:"healers" yaml:"healers"`
	Damage  int `json:"damage" yaml:"damage"`
}

func (s RoleSlots) Total() int {
	return s.Tanks + s.Healers + s.Damage
}

var slotRoles = [3]RoleMask{RoleTank, RoleHealer, RoleDamage}

// AssignRoles gives every member exactly one combat role allowed by their
// mask without exceeding the seat counts in slots. It returns the assigned
// role per member in input order, or false when no assignment exists.
func AssignRoles(masks []RoleMask, slots RoleSlots) ([]RoleMask, bool) {
	if len(masks) > slots.Total() {
		return nil, false
	}

	a := roleAssigner{
		masks:    masks,
		caps:     [3]int{slots.Tanks, slots.Healers, slots.Damage},
		assigned: make([]int, len(masks)),
	}
	for i := range a.assigned {
		a.assigned[i] = -1
	}

	for i := range masks {
		var visited [3]bool
		if !a.place(i, &visited) {
			return nil, false
		}
	}

	out := make([]RoleMask, len(masks))
	for i, slot := range a.assigned {
		out[i] = slotRoles[slot]
	}
	return out, true
}

// roleAssigner is a bipartite matching of members onto three capacitated
// role seats, using augmenting paths.
type roleAssigner struct {
	masks    []RoleMask
	caps     [3]int
	count    [3]int
	assigned []int
}

func (a *roleAssigner) place(i int, visited *[3]bool) bool {
	for r, role := range slotRoles {
		if visited[r] || !a.masks[i].Has(role) {
			continue
		}
		visited[r] = true

		if a.count[r] < a.caps[r] {
			a.assigned[i] = r
			a.count[r]++
			return true
		}

		for j := range a.assigned {
			if j == i || a.assigned[j] != r {
				continue
			}
			a.assigned[j] = -1
			a.count[r]--
			if a.place(j, visited) {
				a.assigned[i] = r
				a.count[r]++
				return true
			}
			a.assigned[j] = r
			a.count[r]++
		}
	}
	return false
}
