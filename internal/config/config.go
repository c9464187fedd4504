package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/mirrorkit/mirrorkit/internal/utils"
)

const (
	DirectionDown = "down"
	DirectionUp   = "up"

	DefaultPort    = 21
	DefaultWorkers = 4
)

// Config is the fully resolved run configuration. Flag/env/file precedence is
// handled by the CLI layer; by the time Validate passes, every field is final.
type Config struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	RemoteDir string `mapstructure:"remote_dir"`
	LocalDir  string `mapstructure:"local_dir"`
	Direction string `mapstructure:"direction"`
	Workers   int    `mapstructure:"workers"`
}

// Addr returns the dialable host:port of the remote endpoint.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks required fields and normalizes defaults. It must pass
// before any connection is attempted; a failure here aborts the run.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("config `host` is required")
	}
	if c.User == "" {
		return fmt.Errorf("config `user` is required")
	}
	if c.LocalDir == "" {
		return fmt.Errorf("config `local_dir` is required")
	}

	localDir, err := utils.ResolvePath(c.LocalDir)
	if err != nil {
		return fmt.Errorf("config `local_dir` %q: %w", c.LocalDir, err)
	}
	if !utils.DirExists(localDir) {
		return fmt.Errorf("config `local_dir` %q is not an existing directory", localDir)
	}
	c.LocalDir = localDir

	switch c.Direction {
	case DirectionDown, DirectionUp:
	case "":
		c.Direction = DirectionDown
	default:
		return fmt.Errorf("config `direction` must be %q or %q, got %q", DirectionDown, DirectionUp, c.Direction)
	}

	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}

	return nil
}
