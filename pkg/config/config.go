// Package config loads the store catalog: which stores exist, which files
// back them, their attribute types and their references.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/morandi/jstore/pkg/dao"
	"github.com/morandi/jstore/pkg/jsonstore"
	"github.com/morandi/jstore/pkg/logging"
)

// Config is the parsed store catalog.
type Config struct {
	LogLevel string        `koanf:"logLevel"`
	Stores   []StoreConfig `koanf:"stores"`

	// BaseDir anchors relative store file paths; set by Load to the
	// config file's directory.
	BaseDir string `koanf:"-"`
}

// StoreConfig declares one file-backed store.
type StoreConfig struct {
	Name       string            `koanf:"name"`
	File       string            `koanf:"file"`
	ID         string            `koanf:"id"`
	Attributes map[string]string `koanf:"attributes"`
	References []ReferenceConfig `koanf:"references"`
}

// ReferenceConfig declares a reference on a store attribute.
type ReferenceConfig struct {
	Attribute  string                 `koanf:"attribute"`
	Kind       string                 `koanf:"kind"` // "one" or "many"
	Store      string                 `koanf:"store"`
	LocalKey   string                 `koanf:"localKey"`
	ForeignKey string                 `koanf:"foreignKey"`
	Export     bool                   `koanf:"export"`
	ExportData bool                   `koanf:"exportData"`
	Filter     map[string]interface{} `koanf:"filter"`
}

// Load reads the catalog from a YAML file, applying defaults first and
// JSTORE_* environment variables last.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"logLevel": "info",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := k.Load(env.Provider("JSTORE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "JSTORE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.BaseDir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural consistency of the catalog.
func (c *Config) Validate() error {
	if len(c.Stores) == 0 {
		return fmt.Errorf("config declares no stores")
	}
	names := map[string]bool{}
	for _, sc := range c.Stores {
		if sc.Name == "" {
			return fmt.Errorf("store with empty name")
		}
		if names[sc.Name] {
			return fmt.Errorf("duplicate store %q", sc.Name)
		}
		names[sc.Name] = true
		if sc.File == "" {
			return fmt.Errorf("store %q has no backing file", sc.Name)
		}
	}
	for _, sc := range c.Stores {
		for _, rc := range sc.References {
			if rc.Attribute == "" {
				return fmt.Errorf("store %q: reference with empty attribute", sc.Name)
			}
			if rc.Kind != "one" && rc.Kind != "many" {
				return fmt.Errorf("store %q: reference %q has invalid kind %q",
					sc.Name, rc.Attribute, rc.Kind)
			}
			if !names[rc.Store] {
				return fmt.Errorf("store %q: reference %q points to unknown store %q",
					sc.Name, rc.Attribute, rc.Store)
			}
		}
	}
	return nil
}

// BuildRegistry turns the catalog into a lazy store registry. Stores are
// constructed on first use; references resolve their foreign stores
// through the registry.
func BuildRegistry(cfg *Config, logs *logging.Registry) (*jsonstore.Registry, error) {
	registry := jsonstore.NewRegistry(logs.For("dao"))
	configLog := logs.For("config")

	for _, sc := range cfg.Stores {
		sc := sc
		path := sc.File
		if !filepath.IsAbs(path) && cfg.BaseDir != "" {
			path = filepath.Join(cfg.BaseDir, path)
		}

		registry.Register(sc.Name, func(factory dao.Factory, log logging.Logger) (dao.Store, error) {
			attrs := make(map[string]dao.AttrType, len(sc.Attributes))
			for attr, decl := range sc.Attributes {
				t, err := dao.ParseAttrType(attr, decl)
				if err != nil {
					return nil, err
				}
				attrs[attr] = t
			}

			st := jsonstore.New(jsonstore.Config{
				Name:        sc.Name,
				Path:        path,
				IDAttribute: sc.ID,
				Attributes:  attrs,
			}, factory, log)

			for _, rc := range sc.References {
				if rc.ExportData && !rc.Export {
					// exportData does not imply export; the reference
					// stays out of persistence until export is enabled.
					configLog.Warning("reference declares exportData without export and will not be persisted",
						map[string]interface{}{"store": sc.Name, "attribute": rc.Attribute})
				}
				refCfg := dao.RefConfig{
					ForeignName: rc.Store,
					LocalKey:    rc.LocalKey,
					ForeignKey:  rc.ForeignKey,
					Export:      rc.Export,
					ExportData:  rc.ExportData,
					Filter:      rc.Filter,
					Source:      st,
				}
				var ref dao.Reference
				if rc.Kind == "many" {
					ref = dao.NewToMany(refCfg)
				} else {
					ref = dao.NewToOne(refCfg)
				}
				st.SetReference(rc.Attribute, ref)
			}
			return st, nil
		})
	}
	return registry, nil
}
