// Package config loads blocktool.toml, the connection and staging settings
// for the remote blocklist service.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server         string  `toml:"server"`
	Bucket         string  `toml:"bucket"`
	StagingBucket  string  `toml:"staging_bucket"`
	Collection     string  `toml:"collection"`
	MaxBlockLength *int    `toml:"max_block_length"`
	Create         *Create `toml:"create"`
}

type Create struct {
	// Permissive additionally allows staging records while a changeset is
	// work-in-progress or to-review, instead of only on a signed collection.
	Permissive bool `toml:"permissive"`
}

func defaultConfig() *Config {
	return &Config{
		Server:         "https://settings-writer.prod.mozaws.net/v1",
		Bucket:         "blocklists",
		StagingBucket:  "staging",
		Collection:     "addons",
		MaxBlockLength: nil,
		Create:         &Create{Permissive: false},
	}
}

// ReadConfig reads blocktool.toml from path, falling back to defaults when
// the file is absent. A present but unreadable or invalid file returns the
// defaults alongside the error.
func ReadConfig(path string) (*Config, error) {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	config := defaultConfig()

	fileName := path + "blocktool.toml"
	if _, err := os.Stat(fileName); errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	file, err := os.ReadFile(fileName)
	if err != nil {
		return defaultConfig(), err
	}
	err = toml.Unmarshal(file, &config)
	if err != nil {
		return defaultConfig(), err
	}
	if config.Create == nil {
		config.Create = &Create{Permissive: false}
	}
	return config, nil
}
