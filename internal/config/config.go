package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения
type Config struct {
	Terrain    TerrainConfig    `yaml:"terrain"`
	Generation GenerationConfig `yaml:"generation"`
	Player     PlayerConfig     `yaml:"player"`
	Loop       LoopConfig       `yaml:"loop"`
	API        APIConfig        `yaml:"api"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// TerrainConfig параметры управления зонами
type TerrainConfig struct {
	// ZoneRadius радиус окрестности зон вокруг игрока (3 даёт 7x7 зон)
	ZoneRadius int `yaml:"zone_radius"`
	// Workers размер пула; 0 означает число логических CPU
	Workers int `yaml:"workers"`
}

// GenerationConfig константы генератора ландшафта
type GenerationConfig struct {
	Seed int64 `yaml:"seed"`

	BaseHeight   int `yaml:"base_height"`
	WaterLevel   int `yaml:"water_level"`
	SnowLevel    int `yaml:"snow_level"`
	BedrockLevel int `yaml:"bedrock_level"`
	LavaBand     int `yaml:"lava_band"`
	CaveOpening  int `yaml:"cave_opening"`

	CaveFrequency    float64 `yaml:"cave_frequency"`
	CaveOctaves      int     `yaml:"cave_octaves"`
	GrassFrequency   float64 `yaml:"grass_frequency"`
	GrassAmplitude   float64 `yaml:"grass_amplitude"`
	WorleyFrequency  float64 `yaml:"worley_frequency"`
	BlendLow         float64 `yaml:"blend_low"`
	BlendHigh        float64 `yaml:"blend_high"`
	FractalLevels    int     `yaml:"fractal_levels"`
	MountainExponent float64 `yaml:"mountain_exponent"`
	MaxColumnHeight  int     `yaml:"max_column_height"`
}

// PlayerConfig параметры движения игрока
type PlayerConfig struct {
	Spawn            [3]float64 `yaml:"spawn"`
	FlyMode          bool       `yaml:"fly_mode"`
	Speed            float64    `yaml:"speed"`
	SprintMultiplier float64    `yaml:"sprint_multiplier"`
	JumpImpulse      float64    `yaml:"jump_impulse"`
	SwimAcceleration float64    `yaml:"swim_acceleration"`
	Gravity          float64    `yaml:"gravity"`
	Friction         float64    `yaml:"friction"`
	SettleThreshold  float64    `yaml:"settle_threshold"`
	LiquidDamping    float64    `yaml:"liquid_damping"`
	MouseSensitivity float64    `yaml:"mouse_sensitivity"`
	MaxPitch         float64    `yaml:"max_pitch"`
	Reach            float64    `yaml:"reach"`
	CameraHeight     float64    `yaml:"camera_height"`
	HalfWidth        float64    `yaml:"half_width"`
	Height           float64    `yaml:"height"`
}

// LoopConfig параметры игрового цикла
type LoopConfig struct {
	TickRate     int           `yaml:"tick_rate"`
	MaxDeltaTime time.Duration `yaml:"max_delta_time"`
	AutoWalk     bool          `yaml:"auto_walk"`
}

// APIConfig отладочный HTTP сервер
type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// GetPort возвращает порт API с поддержкой fallback значений
func (a *APIConfig) GetPort() int {
	return getPortWithEnvFallback(a.Port, "VOXEL_API_PORT", 8088)
}

// TelemetryConfig экспорт трасс OTLP/HTTP
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// EventBusConfig шина событий мира. Пустой URL означает шину в памяти.
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// LoggingConfig уровень и каталог файлов логов
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			ZoneRadius: 3,
		},
		Generation: DefaultGeneration(),
		Player: PlayerConfig{
			Spawn:            [3]float64{52, 150, 42},
			FlyMode:          true,
			Speed:            10,
			SprintMultiplier: 2,
			JumpImpulse:      8,
			SwimAcceleration: 12,
			Gravity:          25,
			Friction:         6,
			SettleThreshold:  0.1,
			LiquidDamping:    0.66,
			MouseSensitivity: 0.1,
			MaxPitch:         89,
			Reach:            3,
			CameraHeight:     1.5,
			HalfWidth:        0.4,
			Height:           1.8,
		},
		Loop: LoopConfig{
			TickRate:     60,
			MaxDeltaTime: 100 * time.Millisecond,
		},
		API: APIConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "voxeld",
			SampleRatio: 1,
		},
		EventBus: EventBusConfig{
			Stream:    "WORLD_EVENTS",
			Retention: 24,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// DefaultGeneration возвращает константы генератора по умолчанию
func DefaultGeneration() GenerationConfig {
	return GenerationConfig{
		Seed:             1337,
		BaseHeight:       128,
		WaterLevel:       148,
		SnowLevel:        220,
		BedrockLevel:     100,
		LavaBand:         10,
		CaveOpening:      155,
		CaveFrequency:    20,
		CaveOctaves:      2,
		GrassFrequency:   85,
		GrassAmplitude:   22,
		WorleyFrequency:  0.005,
		BlendLow:         0.35,
		BlendHigh:        0.75,
		FractalLevels:    9,
		MountainExponent: 1.3,
		MaxColumnHeight:  128,
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	g := c.Generation
	if c.Terrain.ZoneRadius < 0 {
		return fmt.Errorf("terrain.zone_radius must be >= 0, got %d", c.Terrain.ZoneRadius)
	}
	if g.BedrockLevel < 0 || g.BedrockLevel >= g.BaseHeight {
		return fmt.Errorf("generation.bedrock_level %d must be in [0, base_height)", g.BedrockLevel)
	}
	if g.BaseHeight+g.MaxColumnHeight > 256 {
		return fmt.Errorf("generation.base_height + max_column_height exceeds chunk height")
	}
	if g.FractalLevels < 2 || g.FractalLevels > 12 {
		return fmt.Errorf("generation.fractal_levels %d out of range [2, 12]", g.FractalLevels)
	}
	if g.CaveOctaves < 1 {
		return fmt.Errorf("generation.cave_octaves must be >= 1")
	}
	if g.WaterLevel < g.BaseHeight || g.WaterLevel >= 256 {
		return fmt.Errorf("generation.water_level %d must be in [base_height, 256)", g.WaterLevel)
	}
	if g.SnowLevel < g.BaseHeight || g.SnowLevel >= 256 {
		return fmt.Errorf("generation.snow_level %d must be in [base_height, 256)", g.SnowLevel)
	}
	if g.CaveFrequency <= 0 || g.GrassFrequency <= 0 || g.WorleyFrequency <= 0 {
		return fmt.Errorf("generation frequencies must be > 0")
	}
	if g.BlendLow >= g.BlendHigh {
		return fmt.Errorf("generation.blend_low %.2f must be < blend_high %.2f", g.BlendLow, g.BlendHigh)
	}
	if p := c.Player.MaxPitch; p <= 0 || p >= 90 {
		return fmt.Errorf("player.max_pitch %.1f must be in (0, 90)", p)
	}
	if c.Loop.TickRate <= 0 {
		return fmt.Errorf("loop.tick_rate must be > 0")
	}
	return nil
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV VOXEL_CONFIG; без файла возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
