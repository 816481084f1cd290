// Package config loads the daemon configuration: hardware wiring, telemetry,
// reading log and logging. Plant thresholds live in the settings file instead.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sweeney/plantwatch/internal/gpio"
)

// Config represents the application configuration
type Config struct {
	SettingsPath string         `yaml:"settingsPath" env:"PLANTWATCH_SETTINGS" env-default:"/etc/plantwatch/settings.yml"`
	Poll         time.Duration  `yaml:"poll" env:"PLANTWATCH_POLL" env-default:"100ms"`
	Hardware     HardwareConfig `yaml:"hardware"`
	MQTT         MQTTConfig     `yaml:"mqtt"`
	HTTP         HTTPConfig     `yaml:"http"`
	Readings     ReadingsConfig `yaml:"readings"`
	Logging      LoggingConfig  `yaml:"logging"`
}

// HardwareConfig contains the GPIO and I2C wiring
type HardwareConfig struct {
	Chip         string `yaml:"chip" env:"PLANTWATCH_GPIO_CHIP" env-default:"gpiochip0"`
	MoisturePins []int  `yaml:"moisturePins" env:"PLANTWATCH_MOISTURE_PINS" env-default:"23,8,25"`
	PumpPins     []int  `yaml:"pumpPins" env:"PLANTWATCH_PUMP_PINS" env-default:"17,27,19"`
	PiezoPin     int    `yaml:"piezoPin" env:"PLANTWATCH_PIEZO_PIN" env-default:"13"`
	ButtonPins   []int  `yaml:"buttonPins" env:"PLANTWATCH_BUTTON_PINS" env-default:"5,6,16,24"`
	LightAddress int    `yaml:"lightAddress" env:"PLANTWATCH_LIGHT_ADDRESS" env-default:"35"`
}

// MQTTConfig contains event publishing configuration. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker    string        `yaml:"broker" env:"PLANTWATCH_MQTT_BROKER" env-default:""`
	ClientID  string        `yaml:"clientId" env:"PLANTWATCH_MQTT_CLIENT_ID" env-default:"plantwatch"`
	Heartbeat time.Duration `yaml:"heartbeat" env:"PLANTWATCH_HEARTBEAT" env-default:"15m"`
}

// HTTPConfig contains the status server configuration. An empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"PLANTWATCH_HTTP_ADDR" env-default:":80"`
}

// ReadingsConfig contains the reading log configuration
type ReadingsConfig struct {
	Dir           string        `yaml:"dir" env:"PLANTWATCH_LOG_DIR" env-default:"/var/log/plantwatch"`
	Interval      time.Duration `yaml:"interval" env:"PLANTWATCH_LOG_INTERVAL" env-default:"10m"`
	Journal       string        `yaml:"journal" env:"PLANTWATCH_JOURNAL" env-default:"/var/lib/plantwatch/readings.db"`
	Retention     time.Duration `yaml:"retention" env:"PLANTWATCH_RETENTION" env-default:"720h"`
	PruneSchedule string        `yaml:"pruneSchedule" env:"PLANTWATCH_PRUNE_SCHEDULE" env-default:"@hourly"`
}

// Load loads configuration from a YAML file with environment variable overrides.
// An empty path reads the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SettingsPath == "" {
		return fmt.Errorf("settings path is required")
	}
	if c.Poll <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Poll)
	}

	if err := c.Pins().Validate(); err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	if len(c.Hardware.ButtonPins) != 4 {
		return fmt.Errorf("hardware: expected 4 button pins (A, B, X, Y), got %d", len(c.Hardware.ButtonPins))
	}
	if c.Hardware.LightAddress < 0x03 || c.Hardware.LightAddress > 0x77 {
		return fmt.Errorf("hardware: light sensor address 0x%02x is not a valid 7-bit address", c.Hardware.LightAddress)
	}

	if c.MQTT.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative")
	}

	if c.Readings.Interval < 0 {
		return fmt.Errorf("reading log interval must not be negative")
	}
	if c.Readings.Retention < 0 {
		return fmt.Errorf("journal retention must not be negative")
	}
	if c.Readings.PruneSchedule != "" {
		if _, err := cron.ParseStandard(c.Readings.PruneSchedule); err != nil {
			return fmt.Errorf("prune schedule %q: %w", c.Readings.PruneSchedule, err)
		}
	}

	return ValidateLogging(&c.Logging)
}

// Pins returns the wiring in the form the gpio package expects.
func (c *Config) Pins() gpio.Pins {
	p := gpio.Pins{
		Moisture: c.Hardware.MoisturePins,
		Pumps:    c.Hardware.PumpPins,
		Piezo:    c.Hardware.PiezoPin,
	}
	copy(p.Buttons[:], c.Hardware.ButtonPins)
	return p
}

// PrintConfig logs the effective configuration
func (c *Config) PrintConfig(logger *zap.Logger) {
	logger.Info("configuration loaded",
		zap.String("settings", c.SettingsPath),
		zap.Duration("poll", c.Poll),
		zap.String("gpio_chip", c.Hardware.Chip),
		zap.Ints("moisture_pins", c.Hardware.MoisturePins),
		zap.Ints("pump_pins", c.Hardware.PumpPins),
		zap.Int("piezo_pin", c.Hardware.PiezoPin),
		zap.Ints("button_pins", c.Hardware.ButtonPins),
		zap.String("light_address", fmt.Sprintf("0x%02x", c.Hardware.LightAddress)),
		zap.String("mqtt_broker", c.MQTT.Broker),
		zap.String("mqtt_client_id", c.MQTT.ClientID),
		zap.Duration("heartbeat", c.MQTT.Heartbeat),
		zap.String("http_addr", c.HTTP.Addr),
		zap.String("log_dir", c.Readings.Dir),
		zap.Duration("log_interval", c.Readings.Interval),
		zap.String("journal", c.Readings.Journal),
		zap.Duration("retention", c.Readings.Retention),
		zap.String("prune_schedule", c.Readings.PruneSchedule),
		zap.String("log_format", c.Logging.Format),
		zap.String("log_level", c.Logging.Level),
	)
}
