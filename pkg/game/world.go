// Package game is the headless tower-defense simulation: a fixed turret
// fires at a finger-driven crosshair while enemy waves converge on it.
// The host advances the world with Step at its own tick rate; all state
// lives behind one mutex so HTTP handlers can poke it safely.
package game

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/teslashibe/go-sentry/internal/log"
	"github.com/teslashibe/go-sentry/pkg/upgrades"
)

// AimSource supplies the normalized aim estimate the turret tracks.
// Implementations must be safe to call from the simulation goroutine.
type AimSource interface {
	Aim() (x, y float64, valid bool)
}

// World owns the full simulation state. Construct with NewWorld and
// drive with Step; ApplyUpgradeID and Reset are the only external
// mutations.
type World struct {
	config  Config
	aim     AimSource
	catalog *upgrades.Catalog

	mu  sync.Mutex
	rng *rand.Rand

	phase Phase
	wave  int

	turret  Turret
	bullets []Bullet
	enemies []Enemy
	nextID  uint64

	spawned    int
	required   int
	spawnTimer float64

	crosshair Vec2
	aimValid  bool
	onTarget  bool

	choices []upgrades.Definition

	kills        int
	wavesCleared int

	pending []Event
}

// NewWorld builds a world in Playing phase, wave 1. aim and catalog may
// be nil: a nil aim never fires, a nil catalog offers no upgrade choices.
func NewWorld(config Config, aim AimSource, catalog *upgrades.Catalog) *World {
	w := &World{
		config:  config,
		aim:     aim,
		catalog: catalog,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	w.restart()
	return w
}

// Step advances the simulation by dt seconds and returns the events the
// tick produced. Oversized deltas from a hitched host loop are capped.
func (w *World) Step(dt float64) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dt < 0 {
		dt = 0
	}
	if dt > w.config.MaxStepDelta {
		dt = w.config.MaxStepDelta
	}

	w.readAim()
	if w.phase == PhasePlaying {
		w.fire(dt)
	}
	w.advanceBullets(dt)
	w.resolveCollisions()
	w.advanceEnemies(dt)
	if w.phase == PhasePlaying {
		w.runSpawner(dt)
		w.checkWaveComplete()
	}
	w.updateOnTarget()

	events := w.pending
	w.pending = nil
	return events
}

// ApplyUpgradeID applies one of the offered upgrade choices and advances
// to the next wave. Outside Upgrading, or for an id not on offer, it is
// a no-op and reports false.
func (w *World) ApplyUpgradeID(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != PhaseUpgrading {
		return false
	}
	for _, def := range w.choices {
		if def.ID == id {
			return w.applyUpgrade(def)
		}
	}
	return false
}

// ApplyUpgrade applies an arbitrary definition, bypassing the offered
// set. Outside Upgrading it is a no-op.
func (w *World) ApplyUpgrade(def upgrades.Definition) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != PhaseUpgrading {
		return false
	}
	return w.applyUpgrade(def)
}

func (w *World) applyUpgrade(def upgrades.Definition) bool {
	switch def.Stat {
	case upgrades.StatDamage:
		w.turret.Damage += def.Value
	case upgrades.StatFireRate:
		w.turret.FireInterval += def.Value
		if w.turret.FireInterval < w.config.FireIntervalFloor {
			w.turret.FireInterval = w.config.FireIntervalFloor
		}
	case upgrades.StatBulletSpeed:
		w.turret.BulletSpeed += def.Value
	default:
		return false
	}

	log.Info("game: upgrade applied", "id", def.ID, "stat", string(def.Stat), "value", def.Value)
	w.emit(Event{Kind: EventUpgradeApplied, Wave: w.wave, UpgradeID: def.ID})
	w.enterWave(w.wave + 1)
	return true
}

// Reset restarts a finished game: wave 1, baseline turret stats, empty
// field. Outside GameOver it is a no-op and reports false.
func (w *World) Reset() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase != PhaseGameOver {
		return false
	}
	w.restart()
	return true
}

// Choices returns the upgrade definitions currently on offer, nil unless
// the world is in Upgrading.
func (w *World) Choices() []upgrades.Definition {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]upgrades.Definition(nil), w.choices...)
}

// restart rebuilds baseline state and enters wave 1. Caller holds w.mu
// (or is the constructor).
func (w *World) restart() {
	cfg := w.config
	w.turret = Turret{
		Pos:          Vec2{cfg.PlayWidth / 2, cfg.PlayHeight / 2},
		Facing:       Vec2{0, -1},
		HP:           cfg.TurretMaxHP,
		MaxHP:        cfg.TurretMaxHP,
		Damage:       cfg.TurretDamage,
		FireInterval: cfg.FireInterval,
		BulletSpeed:  cfg.BulletSpeed,
	}
	w.bullets = nil
	w.enemies = nil
	w.kills = 0
	w.wavesCleared = 0
	w.onTarget = false
	w.enterWave(1)
}

// enterWave switches to Playing for wave n and resets the spawn quota.
func (w *World) enterWave(n int) {
	w.phase = PhasePlaying
	w.wave = n
	w.spawned = 0
	w.required = w.config.WaveBaseQuota + (n-1)*w.config.WaveQuotaStep
	w.spawnTimer = 0
	w.choices = nil
	log.Info("game: wave started", "wave", n, "enemies", w.required)
	w.emit(Event{Kind: EventWaveAnnounced, Wave: n})
}

// readAim maps the normalized aim estimate into play coordinates. An
// invalid estimate keeps the last crosshair position for cosmetics but
// blocks firing.
func (w *World) readAim() {
	if w.aim == nil {
		w.aimValid = false
		return
	}
	x, y, valid := w.aim.Aim()
	w.aimValid = valid
	if !valid {
		return
	}
	w.crosshair = Vec2{x * w.config.PlayWidth, y * w.config.PlayHeight}
	if dir, ok := w.crosshair.Sub(w.turret.Pos).Unit(); ok {
		w.turret.Facing = dir
	}
}

// fire accumulates the shot cooldown and releases a bullet toward the
// crosshair when charged. A crosshair dead on the turret center has no
// direction and the shot is held.
func (w *World) fire(dt float64) {
	w.turret.cooldown += dt
	if !w.aimValid {
		return
	}
	dir, ok := w.crosshair.Sub(w.turret.Pos).Unit()
	if !ok {
		return
	}
	if w.turret.cooldown >= w.turret.FireInterval {
		w.turret.cooldown = 0
		w.nextID++
		w.bullets = append(w.bullets, Bullet{
			ID:     w.nextID,
			Pos:    w.turret.Pos.Add(dir.Scale(w.config.BulletSpawnOffset)),
			Dir:    dir,
			Speed:  w.turret.BulletSpeed,
			Damage: w.turret.Damage,
		})
	}
}

func (w *World) advanceBullets(dt float64) {
	m := w.config.BulletCullMargin
	live := w.bullets[:0]
	for _, b := range w.bullets {
		b.Pos = b.Pos.Add(b.Dir.Scale(b.Speed * dt))
		if b.Pos.X < -m || b.Pos.X > w.config.PlayWidth+m ||
			b.Pos.Y < -m || b.Pos.Y > w.config.PlayHeight+m {
			continue
		}
		live = append(live, b)
	}
	w.bullets = live
}

// resolveCollisions destroys each bullet on its first enemy contact and
// applies the bullet's damage. Enemies killed here are gone before the
// spawner and wave checks run this tick.
func (w *World) resolveCollisions() {
	if len(w.bullets) == 0 || len(w.enemies) == 0 {
		return
	}
	contact := w.config.BulletHitRadius + w.config.EnemyHitRadius

	live := w.bullets[:0]
	for _, b := range w.bullets {
		hit := false
		for i := range w.enemies {
			e := &w.enemies[i]
			if e.HP <= 0 {
				continue
			}
			if b.Pos.DistanceTo(e.Pos) < contact {
				hit = true
				e.HP -= b.Damage
				if e.HP <= 0 {
					w.kills++
					w.emit(Event{Kind: EventEnemyDestroyed, Wave: w.wave, EnemyID: e.ID})
				} else {
					w.emit(Event{Kind: EventEnemyHit, Wave: w.wave, EnemyID: e.ID})
				}
				break
			}
		}
		if !hit {
			live = append(live, b)
		}
	}
	w.bullets = live
	w.removeDeadEnemies()
}

func (w *World) removeDeadEnemies() {
	live := w.enemies[:0]
	for _, e := range w.enemies {
		if e.HP > 0 {
			live = append(live, e)
		}
	}
	w.enemies = live
}

// advanceEnemies walks each enemy toward its target. Reaching the
// arrival radius deals exactly 1 damage to a living turret and removes
// the enemy whatever its remaining hp.
func (w *World) advanceEnemies(dt float64) {
	live := w.enemies[:0]
	for _, e := range w.enemies {
		if dir, ok := e.Target.Sub(e.Pos).Unit(); ok {
			e.Pos = e.Pos.Add(dir.Scale(e.Speed * dt))
		}
		if e.Pos.DistanceTo(e.Target) < w.config.EnemyArrivalRadius {
			w.damageTurret(1)
			continue
		}
		live = append(live, e)
	}
	w.enemies = live
}

func (w *World) damageTurret(amount int) {
	if w.turret.HP <= 0 {
		return
	}
	w.turret.HP -= amount
	if w.turret.HP <= 0 {
		w.turret.HP = 0
		w.phase = PhaseGameOver
		w.choices = nil
		log.Info("game: over", "wave", w.wave, "kills", w.kills)
		w.emit(Event{Kind: EventGameOver, Wave: w.wave, Kills: w.kills})
	}
}

// runSpawner ticks the spawn timer and creates enemies until the wave
// quota is met, independent of enemy survival.
func (w *World) runSpawner(dt float64) {
	if w.spawned >= w.required {
		return
	}
	w.spawnTimer += dt
	interval := w.spawnInterval()
	for w.spawnTimer >= interval && w.spawned < w.required {
		w.spawnTimer -= interval
		w.spawnEnemy()
	}
}

func (w *World) spawnInterval() float64 {
	return math.Max(w.config.SpawnMinInterval,
		w.config.SpawnBaseInterval-float64(w.wave)*w.config.SpawnWaveStep)
}

func (w *World) enemyHP() float64 {
	return w.config.EnemyBaseHP + float64(w.wave-1)*w.config.EnemyHPStep
}

func (w *World) spawnEnemy() {
	hp := w.enemyHP()
	w.nextID++
	w.enemies = append(w.enemies, Enemy{
		ID:     w.nextID,
		Pos:    w.edgeSpawnPoint(),
		Target: w.turret.Pos,
		HP:     hp,
		MaxHP:  hp,
		Speed:  w.config.EnemySpeed,
	})
	w.spawned++
}

// edgeSpawnPoint picks a uniform point on one of the four screen edges,
// offset outside the play rect.
func (w *World) edgeSpawnPoint() Vec2 {
	off := w.config.SpawnEdgeOffset
	switch w.rng.Intn(4) {
	case 0: // top
		return Vec2{w.rng.Float64() * w.config.PlayWidth, -off}
	case 1: // right
		return Vec2{w.config.PlayWidth + off, w.rng.Float64() * w.config.PlayHeight}
	case 2: // bottom
		return Vec2{w.rng.Float64() * w.config.PlayWidth, w.config.PlayHeight + off}
	default: // left
		return Vec2{-off, w.rng.Float64() * w.config.PlayHeight}
	}
}

// checkWaveComplete fires the Playing→Upgrading transition once the
// quota is spawned and the field is clear.
func (w *World) checkWaveComplete() {
	if w.spawned < w.required || len(w.enemies) > 0 {
		return
	}
	w.phase = PhaseUpgrading
	w.wavesCleared++
	if w.catalog != nil {
		w.choices = w.catalog.PickDistinct(w.config.UpgradeChoices)
	}
	log.Info("game: wave cleared", "wave", w.wave, "choices", len(w.choices))
	w.emit(Event{Kind: EventWaveCleared, Wave: w.wave})
}

// updateOnTarget sets the cosmetic flag when any live enemy sits under
// the crosshair.
func (w *World) updateOnTarget() {
	w.onTarget = false
	for i := range w.enemies {
		if w.enemies[i].Pos.DistanceTo(w.crosshair) < w.config.OnTargetRadius {
			w.onTarget = true
			return
		}
	}
}

func (w *World) emit(ev Event) {
	w.pending = append(w.pending, ev)
}
