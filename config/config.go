// Package config loads HostStats settings from flags, environment, an
// optional .env file and an optional config file, in that precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "HOSTSTATS"

	KeyAddr            = "addr"
	KeyDebug           = "debug"
	KeyLogLevel        = "log.level"
	KeyLogFile         = "log.file"
	KeySampleWindow    = "cpu.sample_window"
	KeySensors         = "cpu.sensors"
	KeyDiskPath        = "disk.path"
	KeyProbeTimeout    = "probe.timeout"
	KeyTunnelContainer = "probe.tunnel_container"
	KeyLinkStrapi      = "links.strapi"
	KeyLinkCloudflared = "links.cloudflared"
	KeyLinkSSH         = "links.ssh"
)

// Config is the resolved configuration. Empty Sensors and Links fall back to
// the collector and probe defaults.
type Config struct {
	Addr     string
	Debug    bool
	LogLevel string
	LogFile  string

	SampleWindow time.Duration
	Sensors      []string
	DiskPath     string

	ProbeTimeout    time.Duration
	TunnelContainer string
	Links           Links
}

type Links struct {
	Strapi      string
	Cloudflared string
	SSH         string
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeySampleWindow, time.Second)
	v.SetDefault(KeyDiskPath, "/")
	v.SetDefault(KeyProbeTimeout, time.Second)
	v.SetDefault(KeyTunnelContainer, "cloudflared")
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv reads .env from the working directory if it exists.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// ReadFile reads file into v. With an empty file the default search paths
// are tried and a missing config file is not an error.
func ReadFile(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("hoststats")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".hoststats"))
		}
		v.AddConfigPath("/etc/hoststats")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Addr:            v.GetString(KeyAddr),
		Debug:           v.GetBool(KeyDebug),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFile:         v.GetString(KeyLogFile),
		SampleWindow:    v.GetDuration(KeySampleWindow),
		Sensors:         v.GetStringSlice(KeySensors),
		DiskPath:        v.GetString(KeyDiskPath),
		ProbeTimeout:    v.GetDuration(KeyProbeTimeout),
		TunnelContainer: v.GetString(KeyTunnelContainer),
		Links: Links{
			Strapi:      v.GetString(KeyLinkStrapi),
			Cloudflared: v.GetString(KeyLinkCloudflared),
			SSH:         v.GetString(KeyLinkSSH),
		},
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.SampleWindow <= 0 {
		return fmt.Errorf("cpu.sample_window must be positive, got %v", c.SampleWindow)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe.timeout must be positive, got %v", c.ProbeTimeout)
	}
	if c.DiskPath == "" {
		return errors.New("disk.path must not be empty")
	}
	if c.TunnelContainer == "" {
		return errors.New("probe.tunnel_container must not be empty")
	}
	return nil
}
