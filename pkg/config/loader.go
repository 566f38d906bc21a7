package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.Mutex
	cache   = make(map[string]any)

	dotenvOnce sync.Once
)

// Load populates cfg from environment variables using its `env` field tags.
// The first call loads an optional .env file; each distinct config type is
// parsed once per process and served from cache afterwards, so packages can
// call Load for their own Config without coordinating startup order.
//
//	type Config struct {
//		DatabaseURL string `env:"DATABASE_URL,required"`
//		Debug       bool   `env:"DEBUG" envDefault:"false"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// Missing .env is fine; real environments set variables directly.
		_ = godotenv.Load()
	})

	key := typeKey[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	// Cache a copy so later mutations by the caller don't leak into other
	// consumers of the same config type.
	cache[key] = *cfg
	return nil
}

// MustLoad is Load for configs the process cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeKey[T any]() string {
	if t := reflect.TypeOf(*new(T)); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
