package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024

// envPrefix namespaces the engine's environment variables.
const envPrefix = "ASKD_"

// Load reads configuration from an optional YAML file and the environment.
//
// Environment variables use the ASKD_ prefix with an underscore separator,
// split on the first underscore after the prefix into section.field:
//
//	ASKD_RETRIEVAL_MIN_SCORE -> retrieval.min_score
//	ASKD_EMBEDDING_BASE_URL  -> embedding.base_url
//
// An empty configPath skips the file layer.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		info, err := os.Stat(configPath)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("%w: config file %s exceeds %d bytes", ErrInvalidConfig, configPath, maxConfigFileSize)
		}
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := NewDefault()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps ASKD_SECTION_FIELD_NAME to section.field_name: split on
// the first underscore after the prefix, keep later underscores in the field.
func envTransform(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
