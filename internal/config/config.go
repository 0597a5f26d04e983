// Package config loads configuration for the touch pad client and receiver.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultHostLabel      = "local"
	defaultHost           = "127.0.0.1"
	defaultPort           = 8080
	defaultListenAddr     = "0.0.0.0:8080"
	defaultSurfaceWidth   = 1280
	defaultSurfaceHeight  = 800
	defaultSwipeThreshold = 10
	defaultSwipeVelocity  = 0.3
	defaultPending        = PendingDrop
	defaultQueueLimit     = 32
	defaultWheelStep      = 120
	defaultDevice         = "/dev/input/event0"
)

const (
	// PendingDrop discards gestures recognized before the handshake was sent.
	PendingDrop = "drop"
	// PendingQueue buffers gestures until the handshake was sent.
	PendingQueue = "queue"
)

// Address is a resolved remote controller location.
type Address struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// HostPort returns the address in host:port form.
func (a Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.HostPort()
}

// Validate reports whether the address is usable.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Host) == "" {
		return errors.New("address host is required")
	}
	if a.Port <= 0 || a.Port > 65535 {
		return fmt.Errorf("address port must be 1-65535, got %d", a.Port)
	}
	return nil
}

// ParseAddress parses a host:port string.
func ParseAddress(hostport string) (Address, error) {
	host, portRaw, err := net.SplitHostPort(strings.TrimSpace(hostport))
	if err != nil {
		return Address{}, err
	}
	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return Address{}, fmt.Errorf("invalid port %q: %w", portRaw, err)
	}
	addr := Address{Host: host, Port: port}
	return addr, addr.Validate()
}

// Surface is the touch surface size in surface units.
type Surface struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Swipe holds the swipe recognition thresholds.
type Swipe struct {
	Threshold float64 `yaml:"threshold"`
	Velocity  float64 `yaml:"velocity"`
}

// Receiver holds the settings of the touch pad endpoint.
type Receiver struct {
	ListenAddr string `yaml:"listen"`
	ReplacePad bool   `yaml:"replacePad"`
	WheelStep  int    `yaml:"wheelStep"`
}

// Config holds runtime configuration values.
type Config struct {
	// Hosts maps a label to a remote controller address.
	Hosts map[string]Address `yaml:"hosts"`
	// Host selects an entry of Hosts, or is a literal host:port.
	Host string `yaml:"host"`
	// Address is Host resolved against Hosts.
	Address Address `yaml:"-"`

	Surface    Surface  `yaml:"surface"`
	Swipe      Swipe    `yaml:"swipe"`
	Pending    string   `yaml:"pending"`
	QueueLimit int      `yaml:"queueLimit"`
	Device     string   `yaml:"device"`
	GrabDevice bool     `yaml:"grabDevice"`
	Receiver   Receiver `yaml:"receiver"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Hosts: map[string]Address{
			defaultHostLabel: {Host: defaultHost, Port: defaultPort},
		},
		Host:       defaultHostLabel,
		Surface:    Surface{Width: defaultSurfaceWidth, Height: defaultSurfaceHeight},
		Swipe:      Swipe{Threshold: defaultSwipeThreshold, Velocity: defaultSwipeVelocity},
		Pending:    defaultPending,
		QueueLimit: defaultQueueLimit,
		Device:     defaultDevice,
		Receiver: Receiver{
			ListenAddr: defaultListenAddr,
			ReplacePad: true,
			WheelStep:  defaultWheelStep,
		},
	}
}

// Load reads configuration from an optional YAML file, a .env file next to
// it, and environment variables, in increasing precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	envPath := ".env"
	if path != "" {
		envPath = filepath.Join(filepath.Dir(path), ".env")
	}
	if err := loadEnvFile(envPath); err != nil {
		return Config{}, err
	}

	if path != "" {
		if err := loadYAMLFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	addr, err := cfg.Resolve(cfg.Host)
	if err != nil {
		return Config{}, err
	}
	cfg.Address = addr

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve maps a host label onto an address. Labels missing from the table
// are parsed as literal host:port values.
func (c Config) Resolve(label string) (Address, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Address{}, errors.New("host is required")
	}
	if addr, ok := c.Hosts[label]; ok {
		if err := addr.Validate(); err != nil {
			return Address{}, fmt.Errorf("host %q: %w", label, err)
		}
		return addr, nil
	}
	addr, err := ParseAddress(label)
	if err != nil {
		return Address{}, fmt.Errorf("unknown host %q", label)
	}
	return addr, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("surface must be positive, got %dx%d", c.Surface.Width, c.Surface.Height)
	}
	if c.Swipe.Threshold < 0 {
		return fmt.Errorf("swipe threshold must be >= 0")
	}
	if c.Swipe.Velocity < 0 {
		return fmt.Errorf("swipe velocity must be >= 0")
	}
	switch c.Pending {
	case PendingDrop, PendingQueue:
	default:
		return fmt.Errorf("pending must be %q or %q, got %q", PendingDrop, PendingQueue, c.Pending)
	}
	if c.QueueLimit <= 0 {
		return fmt.Errorf("queue limit must be > 0")
	}
	if c.Receiver.WheelStep <= 0 {
		return fmt.Errorf("wheel step must be > 0")
	}
	return nil
}

// loadYAMLFile merges a YAML file into cfg.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays TOUCHPAD_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	cfg.Host = envString("TOUCHPAD_HOST", cfg.Host)
	cfg.Pending = strings.ToLower(envString("TOUCHPAD_PENDING", cfg.Pending))
	cfg.Device = envString("TOUCHPAD_DEVICE", cfg.Device)
	cfg.GrabDevice = envBool("TOUCHPAD_GRAB_DEVICE", cfg.GrabDevice)
	cfg.Receiver.ListenAddr = envString("TOUCHPAD_LISTEN_ADDR", cfg.Receiver.ListenAddr)
	cfg.Receiver.ReplacePad = envBool("TOUCHPAD_REPLACE_PAD", cfg.Receiver.ReplacePad)

	if raw := strings.TrimSpace(os.Getenv("TOUCHPAD_PORT")); raw != "" {
		port, err := envInt("TOUCHPAD_PORT", 0)
		if err != nil {
			return err
		}
		addr, ok := cfg.Hosts[cfg.Host]
		if !ok {
			return fmt.Errorf("TOUCHPAD_PORT requires a host label, got %q", cfg.Host)
		}
		addr.Port = port
		hosts := make(map[string]Address, len(cfg.Hosts))
		for k, v := range cfg.Hosts {
			hosts[k] = v
		}
		hosts[cfg.Host] = addr
		cfg.Hosts = hosts
	}

	var err error
	if cfg.Surface.Width, err = envInt("TOUCHPAD_SURFACE_WIDTH", cfg.Surface.Width); err != nil {
		return err
	}
	if cfg.Surface.Height, err = envInt("TOUCHPAD_SURFACE_HEIGHT", cfg.Surface.Height); err != nil {
		return err
	}
	if cfg.QueueLimit, err = envInt("TOUCHPAD_QUEUE_LIMIT", cfg.QueueLimit); err != nil {
		return err
	}
	if cfg.Receiver.WheelStep, err = envInt("TOUCHPAD_WHEEL_STEP", cfg.Receiver.WheelStep); err != nil {
		return err
	}
	if cfg.Swipe.Threshold, err = envFloat("TOUCHPAD_SWIPE_THRESHOLD", cfg.Swipe.Threshold); err != nil {
		return err
	}
	if cfg.Swipe.Velocity, err = envFloat("TOUCHPAD_SWIPE_VELOCITY", cfg.Swipe.Velocity); err != nil {
		return err
	}
	return nil
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// envFloat returns a float env override when present, otherwise a default.
func envFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

// envBool returns a bool env override when present, otherwise a default.
func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.Trim(strings.TrimSpace(value), `"'`), true
}
