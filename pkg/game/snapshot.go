package game

import "github.com/teslashibe/go-sentry/pkg/upgrades"

// Snapshot is a read-only copy of the world for rendering and the API.
type Snapshot struct {
	Phase           string  `json:"phase"`
	Wave            int     `json:"wave"`
	EnemiesSpawned  int     `json:"enemies_spawned"`
	EnemiesRequired int     `json:"enemies_required"`
	PlayWidth       float64 `json:"play_width"`
	PlayHeight      float64 `json:"play_height"`

	Turret    TurretSnapshot    `json:"turret"`
	Crosshair CrosshairSnapshot `json:"crosshair"`
	Bullets   []BulletSnapshot  `json:"bullets"`
	Enemies   []EnemySnapshot   `json:"enemies"`

	Choices []upgrades.Definition `json:"choices,omitempty"`

	OnTarget     bool `json:"on_target"`
	Kills        int  `json:"kills"`
	WavesCleared int  `json:"waves_cleared"`
}

type TurretSnapshot struct {
	Pos          Vec2    `json:"pos"`
	Facing       Vec2    `json:"facing"`
	HP           int     `json:"hp"`
	MaxHP        int     `json:"max_hp"`
	Damage       float64 `json:"damage"`
	FireInterval float64 `json:"fire_interval"`
	BulletSpeed  float64 `json:"bullet_speed"`
}

type CrosshairSnapshot struct {
	Pos   Vec2 `json:"pos"`
	Valid bool `json:"valid"`
}

type BulletSnapshot struct {
	ID  uint64 `json:"id"`
	Pos Vec2   `json:"pos"`
}

type EnemySnapshot struct {
	ID    uint64  `json:"id"`
	Pos   Vec2    `json:"pos"`
	HP    float64 `json:"hp"`
	MaxHP float64 `json:"max_hp"`
}

// Snapshot captures the current state under the world lock.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		Phase:           w.phase.String(),
		Wave:            w.wave,
		EnemiesSpawned:  w.spawned,
		EnemiesRequired: w.required,
		PlayWidth:       w.config.PlayWidth,
		PlayHeight:      w.config.PlayHeight,
		Turret: TurretSnapshot{
			Pos:          w.turret.Pos,
			Facing:       w.turret.Facing,
			HP:           w.turret.HP,
			MaxHP:        w.turret.MaxHP,
			Damage:       w.turret.Damage,
			FireInterval: w.turret.FireInterval,
			BulletSpeed:  w.turret.BulletSpeed,
		},
		Crosshair: CrosshairSnapshot{
			Pos:   w.crosshair,
			Valid: w.aimValid,
		},
		Bullets:      make([]BulletSnapshot, 0, len(w.bullets)),
		Enemies:      make([]EnemySnapshot, 0, len(w.enemies)),
		OnTarget:     w.onTarget,
		Kills:        w.kills,
		WavesCleared: w.wavesCleared,
	}
	for _, b := range w.bullets {
		s.Bullets = append(s.Bullets, BulletSnapshot{ID: b.ID, Pos: b.Pos})
	}
	for _, e := range w.enemies {
		s.Enemies = append(s.Enemies, EnemySnapshot{ID: e.ID, Pos: e.Pos, HP: e.HP, MaxHP: e.MaxHP})
	}
	if len(w.choices) > 0 {
		s.Choices = append([]upgrades.Definition(nil), w.choices...)
	}
	return s
}
