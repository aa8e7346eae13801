// config.go - Cascade relay configuration.
// Copyright (C) 2024  CascadeMix Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package config implements the cascade relay configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cascademix/core/crypto/group"
	"github.com/cascademix/core/crypto/pem"
	"github.com/cascademix/core/log"
	"github.com/cascademix/core/mix"
)

const defaultLogLevel = "NOTICE"

var defaultLogging = Logging{
	Disable: false,
	File:    "",
	Level:   defaultLogLevel,
}

// Relay is the cascade relay configuration.
type Relay struct {
	// PrivateKeyFile is the path to the relay's PEM encoded private key.
	PrivateKeyFile string

	// IsFinalHop indicates that this relay is the cascade exit and
	// delivers plaintext instead of forwarding.
	IsFinalHop bool

	// NrHops is the number of relays in the cascade this relay belongs
	// to, used to derive the expected packet geometry.
	NrHops int
}

func (rCfg *Relay) validate() error {
	if rCfg.PrivateKeyFile == "" {
		return errors.New("config: Relay: no PrivateKeyFile was present")
	}
	if !filepath.IsAbs(rCfg.PrivateKeyFile) {
		return fmt.Errorf("config: Relay: PrivateKeyFile '%v' is not an absolute path", rCfg.PrivateKeyFile)
	}
	if rCfg.NrHops < 1 {
		return fmt.Errorf("config: Relay: NrHops %d is invalid", rCfg.NrHops)
	}
	return nil
}

// Logging is the relay logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file, if omitted stdout will be used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG":
	case "":
		lCfg.Level = defaultLogLevel
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl // Force uppercase.
	return nil
}

// Config is the top level cascade relay configuration.
type Config struct {
	Relay   *Relay
	Logging *Logging
}

// Geometry returns the packet geometry implied by the configured cascade
// length.
func (cfg *Config) Geometry() *mix.Geometry {
	return mix.NewGeometry(cfg.Relay.NrHops)
}

// FixupAndValidate applies defaults to config entries and validates the
// configuration sections.
func (cfg *Config) FixupAndValidate() error {
	// Handle missing sections if possible.
	if cfg.Relay == nil {
		return errors.New("config: No Relay block was present")
	}
	if cfg.Logging == nil {
		cfg.Logging = &defaultLogging
	}

	// Validate and fixup the various sections.
	if err := cfg.Relay.validate(); err != nil {
		return err
	}
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	if err := cfg.Geometry().Validate(); err != nil {
		return fmt.Errorf("config: Relay: %v", err)
	}

	return nil
}

// Load parses and validates the provided buffer b as a config file body
// and returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

// NewNode constructs a mix.Node from the validated configuration, loading
// the relay's private key and standing up the logging backend.
func NewNode(cfg *Config) (*mix.Node, error) {
	logBackend, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return nil, err
	}

	privateKey := new(group.PrivateKey)
	if err := pem.FromFile(cfg.Relay.PrivateKeyFile, privateKey); err != nil {
		return nil, fmt.Errorf("config: failed to load private key: %v", err)
	}

	return mix.NewNode(privateKey, cfg.Relay.IsFinalHop, logBackend), nil
}
