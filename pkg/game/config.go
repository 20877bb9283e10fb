package game

// Config holds the simulation tunables. Defaults reproduce the reference
// balance; the host can override individual values before constructing a
// world.
type Config struct {
	// Play area
	PlayWidth  float64 `json:"play_width" yaml:"play_width"`
	PlayHeight float64 `json:"play_height" yaml:"play_height"`

	// Turret baseline
	TurretMaxHP  int     `json:"turret_max_hp" yaml:"turret_max_hp"`
	TurretDamage float64 `json:"turret_damage" yaml:"turret_damage"`
	FireInterval float64 `json:"fire_interval" yaml:"fire_interval"` // Seconds between shots
	BulletSpeed  float64 `json:"bullet_speed" yaml:"bullet_speed"`

	// Bullets
	BulletSpawnOffset float64 `json:"bullet_spawn_offset" yaml:"bullet_spawn_offset"` // Muzzle distance from turret center
	BulletCullMargin  float64 `json:"bullet_cull_margin" yaml:"bullet_cull_margin"`   // Distance past the play rect before removal
	BulletHitRadius   float64 `json:"bullet_hit_radius" yaml:"bullet_hit_radius"`

	// Enemies
	EnemySpeed         float64 `json:"enemy_speed" yaml:"enemy_speed"`
	EnemyHitRadius     float64 `json:"enemy_hit_radius" yaml:"enemy_hit_radius"`
	EnemyArrivalRadius float64 `json:"enemy_arrival_radius" yaml:"enemy_arrival_radius"`
	EnemyBaseHP        float64 `json:"enemy_base_hp" yaml:"enemy_base_hp"`
	EnemyHPStep        float64 `json:"enemy_hp_step" yaml:"enemy_hp_step"` // Extra hp per wave

	// Spawning
	SpawnEdgeOffset   float64 `json:"spawn_edge_offset" yaml:"spawn_edge_offset"` // Distance outside the play rect
	SpawnBaseInterval float64 `json:"spawn_base_interval" yaml:"spawn_base_interval"`
	SpawnWaveStep     float64 `json:"spawn_wave_step" yaml:"spawn_wave_step"` // Interval reduction per wave
	SpawnMinInterval  float64 `json:"spawn_min_interval" yaml:"spawn_min_interval"`

	// Waves
	WaveBaseQuota int `json:"wave_base_quota" yaml:"wave_base_quota"`
	WaveQuotaStep int `json:"wave_quota_step" yaml:"wave_quota_step"` // Extra enemies per wave

	// Misc
	OnTargetRadius    float64 `json:"on_target_radius" yaml:"on_target_radius"`
	FireIntervalFloor float64 `json:"fire_interval_floor" yaml:"fire_interval_floor"`
	UpgradeChoices    int     `json:"upgrade_choices" yaml:"upgrade_choices"`
	MaxStepDelta      float64 `json:"max_step_delta" yaml:"max_step_delta"` // Hitch guard, seconds
}

// DefaultConfig returns the reference balance.
func DefaultConfig() Config {
	return Config{
		PlayWidth:  800,
		PlayHeight: 600,

		TurretMaxHP:  10,
		TurretDamage: 1.0,
		FireInterval: 0.5,
		BulletSpeed:  300,

		BulletSpawnOffset: 25,
		BulletCullMargin:  100,
		BulletHitRadius:   6,

		EnemySpeed:         60,
		EnemyHitRadius:     18,
		EnemyArrivalRadius: 25,
		EnemyBaseHP:        2.0,
		EnemyHPStep:        0.5,

		SpawnEdgeOffset:   50,
		SpawnBaseInterval: 2.0,
		SpawnWaveStep:     0.1,
		SpawnMinInterval:  0.5,

		WaveBaseQuota: 5,
		WaveQuotaStep: 2,

		OnTargetRadius:    50,
		FireIntervalFloor: 0.1,
		UpgradeChoices:    3,
		MaxStepDelta:      0.25,
	}
}
