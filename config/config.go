// Package config owns the Downloader's persisted configuration: Tor
// routing, user-agent selection, segment size, and concurrency cap.
// It is loaded once at startup and mutated atomically through the
// control plane's PUT /config endpoint.
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

// UserAgent selects one of the two fixed User-Agent strings the
// client port sends. There is no free-form user agent: operators pick
// Firefox or Chrome, matching the source's closed enum.
type UserAgent string

const (
	Firefox UserAgent = "Firefox"
	Chrome  UserAgent = "Chrome"
)

const (
	firefoxUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/113.0"
	chromeUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

	// TorProxyAddr is the fixed SOCKS5(H) proxy address used when
	// UseTor is set. It is not configurable: the source hard-codes
	// the standard local Tor daemon port.
	TorProxyAddr = "127.0.0.1:9050"
)

// HeaderValue returns the literal User-Agent header string for ua,
// falling back to Chrome's for an unrecognized value.
func (ua UserAgent) HeaderValue() string {
	switch ua {
	case Firefox:
		return firefoxUserAgent
	default:
		return chromeUserAgent
	}
}

func (ua UserAgent) Validate() error {
	switch ua {
	case Firefox, Chrome:
		return nil
	default:
		return fmt.Errorf("config: unknown user_agent %q, want %q or %q", ua, Firefox, Chrome)
	}
}

// Config is the Downloader's mutable, persisted settings. A Downloader
// job takes a by-value snapshot of Config at job start so that a
// concurrent PUT /config never affects an in-flight download.
type Config struct {
	UseTor        bool      `mapstructure:"use_tor" json:"use_tor"`
	UserAgent     UserAgent `mapstructure:"user_agent" json:"user_agent"`
	ChunkSize     uint64    `mapstructure:"chunk_size" json:"chunk_size"`
	MaxConcurrent uint      `mapstructure:"max_concurrent_count" json:"max_concurrent_count"`
	OutputDir     string    `mapstructure:"output_dir" json:"output_dir"`
}

// Defaults are used whenever the config file is missing or fails to
// parse.
func Defaults() Config {
	return Config{
		UseTor:        false,
		UserAgent:     Chrome,
		ChunkSize:     10_000_000,
		MaxConcurrent: 5,
		OutputDir:     "files",
	}
}

func (c Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("config: chunk_size must be >= 1, got %d", c.ChunkSize)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("config: max_concurrent_count must be >= 1, got %d", c.MaxConcurrent)
	}
	if err := c.UserAgent.Validate(); err != nil {
		return err
	}
	return nil
}

// Store holds the live config in memory, backed by a JSON file on
// disk, and hands out value-copy snapshots to callers. It is safe for
// concurrent use: one goroutine may call Update while others call
// Snapshot.
type Store struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
	cur  Config
}

// Load reads path (pretty JSON) into a new Store. If the file is
// missing or fails to parse, defaults are used and written back to
// path so a future read succeeds.
func Load(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	s := &Store{v: v, path: path}

	if err := v.ReadInConfig(); err != nil {
		s.cur = Defaults()
		if writeErr := s.persistLocked(); writeErr != nil {
			return nil, fmt.Errorf("config: load failed (%w) and fallback write failed: %w", err, writeErr)
		}
		return s, nil
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		s.cur = Defaults()
		if writeErr := s.persistLocked(); writeErr != nil {
			return nil, fmt.Errorf("config: parse failed (%w) and fallback write failed: %w", err, writeErr)
		}
		return s, nil
	}

	if err := c.Validate(); err != nil {
		s.cur = Defaults()
		if writeErr := s.persistLocked(); writeErr != nil {
			return nil, fmt.Errorf("config: validation failed (%w) and fallback write failed: %w", err, writeErr)
		}
		return s, nil
	}

	s.cur = c
	return s, nil
}

// Snapshot returns a by-value copy of the current config, safe to
// hold for the duration of a download job even if Update runs
// concurrently.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update validates and atomically replaces the in-memory config, then
// persists it to disk.
func (s *Store) Update(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cur
	s.cur = c
	if err := s.persistLocked(); err != nil {
		s.cur = prev
		return err
	}
	return nil
}

// persistLocked writes s.cur to s.path. Callers must hold s.mu.
func (s *Store) persistLocked() error {
	s.v.Set("use_tor", s.cur.UseTor)
	s.v.Set("user_agent", string(s.cur.UserAgent))
	s.v.Set("chunk_size", s.cur.ChunkSize)
	s.v.Set("max_concurrent_count", s.cur.MaxConcurrent)
	s.v.Set("output_dir", s.cur.OutputDir)

	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}
	return nil
}
