package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Session  SessionConfig  `toml:"session"`
	Loop     LoopConfig     `toml:"loop"`
	Spin     SpinConfig     `toml:"spin"`
	Emulator EmulatorConfig `toml:"emulator"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Scripts  ScriptsConfig  `toml:"scripts"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

// SessionConfig holds the page controls and the session request.
type SessionConfig struct {
	HitTest          bool          `toml:"hit_test"`
	Anchors          bool          `toml:"anchors"`
	Model            string        `toml:"model"` // prototype name from the catalog
	HapticsOnSpawn   bool          `toml:"haptics_on_spawn"`
	RoomCaptureDelay time.Duration `toml:"room_capture_delay"`
	RequiredFeatures []string      `toml:"required_features"`
	OptionalFeatures []string      `toml:"optional_features"`
	Language         string        `toml:"language"` // BCP 47, for button labels
	PageURL          string        `toml:"page_url"`
	AutoEnter        bool          `toml:"auto_enter"` // click the AR button once setup finishes
}

type LoopConfig struct {
	FrameRate int    `toml:"frame_rate"`
	MaxFrames uint64 `toml:"max_frames"` // 0 = run until signalled
}

// FrameInterval is the ticker period for FrameRate.
func (c LoopConfig) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 72
	}
	return time.Second / time.Duration(c.FrameRate)
}

type SpinConfig struct {
	MaxSpeed       float64 `toml:"max_speed"`       // rad/s
	DistanceFactor float64 `toml:"distance_factor"` // speed = factor / distance
	MinDistance    float64 `toml:"min_distance"`    // metres; distance floor
}

type EmulatorConfig struct {
	NativeSupport     bool          `toml:"native_support"` // false = AR mode unavailable
	SessionLatency    time.Duration `toml:"session_latency"`
	HitTestLatency    time.Duration `toml:"hit_test_latency"`
	AnchorLatency     time.Duration `toml:"anchor_latency"`
	RoomCaptureTime   time.Duration `toml:"room_capture_time"`
	AnchorFailureRate float64       `toml:"anchor_failure_rate"`
	FloorY            float64       `toml:"floor_y"`
	Seed              int64         `toml:"seed"`
}

type CatalogConfig struct {
	Path string `toml:"path"`
}

type ScriptsConfig struct {
	Dir string `toml:"dir"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the placement journal
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	QueueSize       int           `toml:"queue_size"`
	BatchSize       int           `toml:"batch_size"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes toml data over the defaults; name is used in errors.
func Parse(data []byte, name string) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Spin.MinDistance <= 0 {
		return fmt.Errorf("spin.min_distance must be positive, got %v", c.Spin.MinDistance)
	}
	if c.Spin.MaxSpeed <= 0 {
		return fmt.Errorf("spin.max_speed must be positive, got %v", c.Spin.MaxSpeed)
	}
	if c.Emulator.AnchorFailureRate < 0 || c.Emulator.AnchorFailureRate > 1 {
		return fmt.Errorf("emulator.anchor_failure_rate must be within [0,1], got %v", c.Emulator.AnchorFailureRate)
	}
	if c.Session.Model == "" {
		return fmt.Errorf("session.model is empty")
	}
	return nil
}

// Defaults returns the configuration used for keys a file leaves out.
func Defaults() *Config {
	return &Config{
		Session: SessionConfig{
			HitTest:          false,
			Anchors:          false,
			Model:            "mesh-prototype",
			RoomCaptureDelay: 5 * time.Second,
			RequiredFeatures: []string{"hit-test", "plane-detection", "anchors"},
			OptionalFeatures: []string{"local-floor", "bounded-floor", "layers"},
			Language:         "en",
			PageURL:          "https://localhost:8081/",
			AutoEnter:        true,
		},
		Loop: LoopConfig{
			FrameRate: 72,
		},
		Spin: SpinConfig{
			MaxSpeed:       10,
			DistanceFactor: 2,
			MinDistance:    0.2,
		},
		Emulator: EmulatorConfig{
			NativeSupport:   true,
			SessionLatency:  20 * time.Millisecond,
			HitTestLatency:  50 * time.Millisecond,
			AnchorLatency:   100 * time.Millisecond,
			RoomCaptureTime: 2 * time.Second,
			Seed:            1,
		},
		Catalog: CatalogConfig{
			Path: "data/yaml/prototypes.yaml",
		},
		Scripts: ScriptsConfig{
			Dir: "scripts",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
			QueueSize:       256,
			BatchSize:       32,
			WriteTimeout:    5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
