package config

import (
	"fmt"
	"reflect"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

// parsers extends the env library with the value types the storefront keeps
// in configuration (prices and store-wide money amounts).
var parsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(decimal.Decimal{}): func(v string) (any, error) {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q: %w", v, err)
		}
		return d, nil
	},
}

// Load parses environment variables into the struct pointed to by cfg using
// its `env` tags. Durations use time.ParseDuration syntax and decimal.Decimal
// fields accept plain decimal strings such as "40" or "12.50".
func Load(cfg any) error {
	opts := env.Options{FuncMap: parsers}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
