package engineconfig

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/joeandaverde/tinydb/internal/storage"
)

// Config describes how to open a database file, loaded from a YAML
// config file.
type Config struct {
	Path                string  `yaml:"path"`
	PageSize            int     `yaml:"page_size"`
	CompactionThreshold float64 `yaml:"compaction_threshold"`
	// CacheSizeHint preallocates the pager's in-memory page cache to this
	// many entries, avoiding rehashing while a working set of roughly
	// that size is touched. The pager never evicts, so this only sizes
	// the initial map -- it is not a cap.
	CacheSizeHint int `yaml:"cache_size_hint"`
}

// Default returns the configuration used when no config file is given.
func Default(path string) Config {
	return Config{
		Path:                path,
		PageSize:            storage.DefaultPageSize,
		CompactionThreshold: 0.25,
		CacheSizeHint:       256,
	}
}

// Load reads and validates a YAML config file at configPath.
func Load(configPath string) (Config, error) {
	f, err := os.Open(configPath)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	config := Default("")
	if err := yaml.NewDecoder(f).Decode(&config); err != nil {
		return Config{}, err
	}

	return config, config.Validate()
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("path must be set")
	}
	if c.PageSize < 1024 {
		return errors.New("page size must be greater than or equal to 1024")
	}
	if c.CompactionThreshold <= 0 || c.CompactionThreshold >= 1 {
		return errors.New("compaction threshold must be between 0 and 1")
	}
	if c.CacheSizeHint < 0 {
		return errors.New("cache size hint must not be negative")
	}
	return nil
}

// LogFields renders the config for structured logging at startup.
func (c Config) LogFields() logrus.Fields {
	return logrus.Fields{
		"path":            c.Path,
		"page_size":       c.PageSize,
		"cache_size_hint": c.CacheSizeHint,
	}
}
