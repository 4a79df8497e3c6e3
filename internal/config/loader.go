// Package config loads paddock configuration from defaults, an optional
// config file, and PADDOCK_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the resolved configuration for a paddock run.
type Config struct {
	AWS      AWSConfig      `mapstructure:"aws"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Instance InstanceConfig `mapstructure:"instance"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AWSConfig selects region and credential profile.
type AWSConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// StorageConfig names the pack/bootstrap bucket.
type StorageConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// InstanceConfig shapes the launched instance.
type InstanceConfig struct {
	Name          string `mapstructure:"name"`
	Type          string `mapstructure:"type"`
	KeyName       string `mapstructure:"key_name"`
	IAMProfile    string `mapstructure:"iam_profile"`
	SecurityGroup string `mapstructure:"security_group"`
}

// ServerConfig holds game server parameters baked into the provisioning
// script.
type ServerConfig struct {
	Version  string `mapstructure:"version"`
	UDPPort  int    `mapstructure:"udp_port"`
	TCPPort  int    `mapstructure:"tcp_port"`
	HTTPPort int    `mapstructure:"http_port"`

	// ProbeTimeout bounds each post-launch connectivity check.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// LoggingConfig controls CLI logger construction.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Load resolves configuration. cfgFile overrides the default search paths
// when non-empty; a missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("paddock")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/paddock")
	}

	v.SetEnvPrefix("PADDOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.profile", "")

	v.SetDefault("storage.bucket", "")

	v.SetDefault("instance.name", "ac-server")
	v.SetDefault("instance.type", "t3.small")
	v.SetDefault("instance.key_name", "")
	v.SetDefault("instance.iam_profile", "")
	v.SetDefault("instance.security_group", "ac-server-sg")

	v.SetDefault("server.version", "v0.0.55-pre31")
	v.SetDefault("server.udp_port", 9600)
	v.SetDefault("server.tcp_port", 9600)
	v.SetDefault("server.http_port", 8081)
	v.SetDefault("server.probe_timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
}
