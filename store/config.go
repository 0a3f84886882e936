package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonasvbiegel/bgldb/field"
)

// yamlConfig is the on-disk shape OpenConfigFile reads: key_kind is
// spelled out ("string" / "uint64") rather than carrying the internal
// field.Kind byte value, so a config file stays readable by hand.
type yamlConfig struct {
	PrimaryKey string `yaml:"primary_key"`
	KeyKind    string `yaml:"key_kind"`
	Order      uint8  `yaml:"order"`
}

// OpenConfigFile loads a Config from a YAML file at path, for front ends
// that want to describe a store declaratively instead of constructing a
// Config in Go. This is an ambient convenience over the Store API — the
// engine itself never reads YAML.
func OpenConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("store: read config %s: %w", path, err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return Config{}, fmt.Errorf("store: parse config %s: %w", path, err)
	}

	var kind field.Kind
	switch y.KeyKind {
	case "string":
		kind = field.KindString
	case "uint64":
		kind = field.KindUInt64
	default:
		return Config{}, fmt.Errorf("store: config %s: unknown key_kind %q (want %q or %q)", path, y.KeyKind, "string", "uint64")
	}

	cfg := Config{PrimaryKey: y.PrimaryKey, KeyKind: kind, Order: y.Order}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("store: config %s: %w", path, err)
	}
	return cfg, nil
}
