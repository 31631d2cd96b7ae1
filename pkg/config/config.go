package config

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/foomo/recordstore/pkg/area"
)

// Config holds process wide defaults for collections
type Config struct {
	// DefaultArea is used by collections that do not name an area kind
	DefaultArea area.Kind `env:"RECORDSTORE_DEFAULT_AREA" envDefault:"local"`
}

var (
	defaultOnce   sync.Once
	defaultConfig Config
	defaultErr    error
)

// Parse loads a Config from environment variables
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	kind, err := area.ParseKind(string(c.DefaultArea))
	if err != nil {
		return Config{}, err
	}
	c.DefaultArea = kind
	return c, nil
}

// Default returns the process wide Config. It is parsed from the environment
// on first use and never changes afterwards; a parse failure yields the
// local area together with the error.
func Default() (Config, error) {
	defaultOnce.Do(func() {
		defaultConfig, defaultErr = Parse()
		if defaultErr != nil {
			defaultConfig = Config{DefaultArea: area.KindLocal}
		}
	})
	return defaultConfig, defaultErr
}
