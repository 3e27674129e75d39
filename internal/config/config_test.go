package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func intPtr(i int) *int {
	return &i
}

func TestReadConfig(t *testing.T) {
	tt := []struct {
		name          string
		configContent string
		missing       bool
		expected      *Config
		expectedErr   bool
	}{
		{
			name:     "default config when no file exists",
			missing:  true,
			expected: defaultConfig(),
		},
		{
			name: "valid config with all fields",
			configContent: `
server = "https://kinto.example/v1"
bucket = "blocklists"
staging_bucket = "staging"
collection = "addons"
max_block_length = 1000
[create]
permissive = true
`,
			expected: &Config{
				Server:         "https://kinto.example/v1",
				Bucket:         "blocklists",
				StagingBucket:  "staging",
				Collection:     "addons",
				MaxBlockLength: intPtr(1000),
				Create:         &Create{Permissive: true},
			},
		},
		{
			name: "partial config keeps defaults",
			configContent: `
server = "https://kinto.example/v1"
`,
			expected: &Config{
				Server:         "https://kinto.example/v1",
				Bucket:         "blocklists",
				StagingBucket:  "staging",
				Collection:     "addons",
				MaxBlockLength: nil,
				Create:         &Create{Permissive: false},
			},
		},
		{
			name:          "invalid toml returns defaults and error",
			configContent: "server = [not toml",
			expected:      defaultConfig(),
			expectedErr:   true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if !tc.missing {
				err := os.WriteFile(filepath.Join(dir, "blocktool.toml"), []byte(tc.configContent), 0o644)
				if err != nil {
					t.Fatalf("writing config: %v", err)
				}
			}
			config, err := ReadConfig(dir)
			if (err != nil) != tc.expectedErr {
				t.Errorf("Unexpected error state: %v", err)
			}
			if !reflect.DeepEqual(config, tc.expected) {
				t.Errorf("Expected %+v, got %+v", tc.expected, config)
			}
		})
	}
}
