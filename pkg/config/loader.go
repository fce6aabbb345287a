package config

import (
	"fmt"
	"reflect"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

// parsers teaches env how to read types it does not know natively.
var parsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(decimal.Decimal{}): func(v string) (any, error) {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q: %w", v, err)
		}
		return d, nil
	},
}

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings. Fields of type
// decimal.Decimal are supported.
//
// Example:
//
//	type Config struct {
//	    Port    int             `env:"HTTP_PORT" envDefault:"8080"`
//	    TaxRate decimal.Decimal `env:"TAX_RATE" envDefault:"0.1"`
//	}
func Load(cfg any) error {
	return LoadWithPrefix(cfg, "")
}

// LoadWithPrefix is Load with every variable name prefixed.
func LoadWithPrefix(cfg any, prefix string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix, FuncMap: parsers}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
