package game

// EventKind identifies a discrete simulation event.
type EventKind string

const (
	EventWaveAnnounced  EventKind = "wave_announced"
	EventWaveCleared    EventKind = "wave_cleared"
	EventUpgradeApplied EventKind = "upgrade_applied"
	EventGameOver       EventKind = "game_over"
	EventEnemyHit       EventKind = "enemy_hit" // damage flash, cosmetic
	EventEnemyDestroyed EventKind = "enemy_destroyed"
)

// Event is one discrete occurrence drained from the world by Step.
// Overlay and scoring layers consume these; the simulation never reads
// them back.
type Event struct {
	Kind      EventKind `json:"kind"`
	Wave      int       `json:"wave"`
	EnemyID   uint64    `json:"enemy_id,omitempty"`
	UpgradeID string    `json:"upgrade_id,omitempty"`
	Kills     int       `json:"kills,omitempty"`
}
