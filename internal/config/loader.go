package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Load builds a Config by layering defaults, optional file, env vars, and
// CLI flags. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (JSON or YAML by extension) from --config or RESIREL_CONFIG
//  3. env (prefix RESIREL_)
//  4. flags (only the ones explicitly set)
//
// flags may be nil when no CLI flag set is in play (e.g. tests).
func Load(_ context.Context, flags *pflag.FlagSet) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := configFilePath(flags); path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: RESIREL_REGION, RESIREL_RESI_KEY_LEVEL, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RESIREL_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "resirel_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	// Flags use dashes ("resi-key-level"); map them onto the underscore keys.
	if flags != nil {
		flagProvider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, interface{}) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, fmt.Errorf("%w: flags: %v", ErrLoadConfig, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configFilePath resolves the optional config file: the --config flag wins
// over the RESIREL_CONFIG environment variable.
func configFilePath(flags *pflag.FlagSet) string {
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return os.Getenv("RESIREL_CONFIG")
}

// parserFor picks a parser by file extension; JSON config files match the
// upstream data drops, YAML is the house default.
func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Parser()
	}
	return yaml.Parser()
}
