package game

// Phase is the wave controller state.
type Phase int

const (
	PhasePlaying Phase = iota
	PhaseUpgrading
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhaseUpgrading:
		return "upgrading"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Turret sits at the play-area center and fires toward the crosshair.
type Turret struct {
	Pos          Vec2
	Facing       Vec2 // unit vector toward the last valid crosshair
	HP           int
	MaxHP        int
	Damage       float64
	FireInterval float64
	BulletSpeed  float64

	cooldown float64
}

// Bullet flies in a straight line until it hits an enemy or leaves the
// play rect by more than the cull margin.
type Bullet struct {
	ID     uint64
	Pos    Vec2
	Dir    Vec2
	Speed  float64
	Damage float64
}

// Enemy walks from its spawn point toward a fixed target captured at
// spawn time.
type Enemy struct {
	ID     uint64
	Pos    Vec2
	Target Vec2
	HP     float64
	MaxHP  float64
	Speed  float64
}
