// Package upgrades holds the between-wave upgrade pool: definitions, a
// pipe-delimited catalog format, and random distinct picks for the
// upgrade screen.
package upgrades

import (
	"math/rand"
	"sync"
	"time"
)

// Stat tags the turret stat an upgrade modifies.
type Stat string

const (
	StatDamage      Stat = "damage"
	StatFireRate    Stat = "fire-rate"
	StatBulletSpeed Stat = "bullet-speed"
)

// Valid reports whether s is one of the known stat tags.
func (s Stat) Valid() bool {
	switch s {
	case StatDamage, StatFireRate, StatBulletSpeed:
		return true
	}
	return false
}

// Definition is one immutable upgrade record. Value is a delta added to
// the tagged stat; fire-rate deltas are negative to shoot faster.
type Definition struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Stat        Stat    `json:"stat"`
	Value       float64 `json:"value"`
}

// Catalog is the loaded upgrade pool.
type Catalog struct {
	mu   sync.Mutex
	defs []Definition
	rng  *rand.Rand
}

// NewCatalog copies defs into a catalog.
func NewCatalog(defs []Definition) *Catalog {
	return &Catalog{
		defs: append([]Definition(nil), defs...),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Len returns the number of definitions in the pool.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Definitions returns a copy of the full pool.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// ByID looks up a definition by identifier.
func (c *Catalog) ByID(id string) (Definition, bool) {
	for _, d := range c.defs {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// PickDistinct returns n definitions drawn uniformly without replacement.
// It returns fewer than n only when the catalog itself is smaller.
func (c *Catalog) PickDistinct(n int) []Definition {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n > len(c.defs) {
		n = len(c.defs)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Definition, 0, n)
	for _, i := range c.rng.Perm(len(c.defs))[:n] {
		out = append(out, c.defs[i])
	}
	return out
}

// DefaultDefinitions is the built-in pool used when no catalog file is
// configured.
func DefaultDefinitions() []Definition {
	return []Definition{
		{ID: "dmg-1", Name: "Hardened Rounds", Description: "+0.5 turret damage", Stat: StatDamage, Value: 0.5},
		{ID: "dmg-2", Name: "Piercing Core", Description: "+1.0 turret damage", Stat: StatDamage, Value: 1.0},
		{ID: "rate-1", Name: "Rapid Loader", Description: "0.1s faster between shots", Stat: StatFireRate, Value: -0.1},
		{ID: "rate-2", Name: "Overclocked Feed", Description: "0.05s faster between shots", Stat: StatFireRate, Value: -0.05},
		{ID: "spd-1", Name: "Velocity Coils", Description: "+50 bullet speed", Stat: StatBulletSpeed, Value: 50},
		{ID: "spd-2", Name: "Railgun Barrel", Description: "+100 bullet speed", Stat: StatBulletSpeed, Value: 100},
	}
}
