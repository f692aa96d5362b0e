package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nicolagi/kvs/kvs"
	"github.com/rogpeppe/rjson"
	"gopkg.in/yaml.v3"
)

type config struct {
	Address           string `json:"address" yaml:"address"`
	ForwardingAddress string `json:"forwarding_address" yaml:"forwarding_address"`

	// Properties for forwarding instances.
	ForwardTimeout string  `json:"forward_timeout" yaml:"forward_timeout"`
	ForwardRate    float64 `json:"forward_rate" yaml:"forward_rate"`
	ForwardBurst   int     `json:"forward_burst" yaml:"forward_burst"`

	// Properties for canonical instances.
	MaxKeyLength int `json:"max_key_length" yaml:"max_key_length"`

	Debug       bool   `json:"debug" yaml:"debug"`
	LogPath     string `json:"log_path" yaml:"log_path"`
	DisableGops bool   `json:"disable_gops" yaml:"disable_gops"`

	forwardTimeout time.Duration
}

// loadConfig reads the file at pathname, if not empty, then applies
// environment overrides and defaults.
func loadConfig(pathname string, getenv func(string) string) (*config, error) {
	c := new(config)
	if pathname != "" {
		if err := c.decodeFile(pathname); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnvironment(getenv); err != nil {
		return nil, err
	}
	c.applyDefaultsForMissingProperties()
	d, err := time.ParseDuration(c.ForwardTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid forward timeout %q: %w", c.ForwardTimeout, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("invalid forward timeout %q: must be positive", c.ForwardTimeout)
	}
	c.forwardTimeout = d
	if c.ForwardRate < 0 {
		return nil, fmt.Errorf("invalid forward rate %v: must not be negative", c.ForwardRate)
	}
	return c, nil
}

func (c *config) decodeFile(pathname string) error {
	f, err := os.Open(pathname)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	switch strings.ToLower(filepath.Ext(pathname)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(c)
	default:
		err = rjson.NewDecoder(f).Decode(c)
	}
	if errors.Is(err, io.EOF) {
		// Empty file.
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not parse %q: %w", pathname, err)
	}
	return nil
}

func (c *config) applyEnvironment(getenv func(string) string) error {
	if v := getenv("SOCKET_ADDRESS"); v != "" {
		c.Address = v
	}
	if v := getenv("FORWARDING_ADDRESS"); v != "" {
		c.ForwardingAddress = v
	}
	if v := getenv("FORWARD_TIMEOUT"); v != "" {
		c.ForwardTimeout = v
	}
	if v := getenv("FORWARD_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid FORWARD_RATE value: %w", err)
		}
		c.ForwardRate = rate
	}
	if v := getenv("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG value: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

func (c *config) applyDefaultsForMissingProperties() {
	if c.Address == "" {
		c.Address = ":8090"
	}
	if c.ForwardTimeout == "" {
		c.ForwardTimeout = kvs.DefaultForwardTimeout.String()
	}
	if c.ForwardBurst <= 0 {
		c.ForwardBurst = 1
	}
	if c.MaxKeyLength <= 0 {
		c.MaxKeyLength = kvs.DefaultMaxKeyLength
	}
}
