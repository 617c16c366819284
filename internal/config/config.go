package config

import (
	"fmt"
	"time"
)

// Config holds the options shared by every command.
type Config struct {
	DryRun         bool   `short:"n" long:"dry-run" description:"Print the changes as a unified diff instead of writing them"`
	JSON           bool   `long:"json" description:"Print reports as JSON"`
	Verbose        bool   `short:"v" long:"verbose" description:"Log the effective configuration and print diffs of written files"`
	LockTimeoutSec int    `long:"lock-timeout" default:"30" description:"Seconds to wait for the lock on a target file"`
	MaxFileSizeMB  int    `long:"max-file-size" default:"10" description:"Refuse to patch files larger than this many MB"`
	NoLock         bool   `long:"no-lock" description:"Do not take the advisory lock on target files"`
	LockDir        string `long:"lock-dir" description:"Directory for lock files (default $TMPDIR/confpatch)"`
}

// Default returns the configuration used when no flags are given.
func Default() *Config {
	return &Config{
		LockTimeoutSec: 30,
		MaxFileSizeMB:  10,
	}
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.LockTimeoutSec < 1 || c.LockTimeoutSec > 300 {
		return fmt.Errorf("lock timeout must be between 1 and 300 seconds")
	}
	if c.MaxFileSizeMB < 1 || c.MaxFileSizeMB > 100 {
		return fmt.Errorf("max file size must be between 1 and 100 MB")
	}
	if c.NoLock && c.LockDir != "" {
		return fmt.Errorf("lock directory cannot be combined with --no-lock")
	}
	return nil
}

// LockTimeout returns the lock wait as a duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutSec) * time.Second
}

// MaxFileSize returns the size limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
