// Package config loads abistructs.toml.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gitlab.com/tozd/go/errors"

	"github.com/jshufro/abistructs/internal/emit"
)

const FileName = "abistructs.toml"

type Config struct {
	Output  Output  `toml:"output"`
	Resolve Resolve `toml:"resolve"`
	Cache   Cache   `toml:"cache"`
	Log     Log     `toml:"log"`
}

type Output struct {
	Format         emit.Format `toml:"format"`
	ProtoPackage   string      `toml:"proto_package"`
	GoPackage      string      `toml:"go_package"`
	SolidityPragma string      `toml:"solidity_pragma"`
	License        string      `toml:"license"`
}

type Resolve struct {
	Jobs int `toml:"jobs"` // 0 means GOMAXPROCS
}

type Cache struct {
	Dir  string `toml:"dir"` // empty disables the on-disk cache
	Size int    `toml:"size"`
}

type Log struct {
	Level string `toml:"level"`
	Color bool   `toml:"color"`
}

func Default() Config {
	return Config{
		Output: Output{
			Format:         emit.FormatSolidity,
			ProtoPackage:   "abistructs",
			GoPackage:      "abistructs",
			SolidityPragma: ">=0.7.0 <0.9.0",
			License:        "UNLICENSED",
		},
		Cache: Cache{Size: 128},
		Log: Log{
			Level: "info",
			Color: true,
		},
	}
}

// Find walks up from startDir looking for abistructs.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, errors.Errorf("resolving start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, errors.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes path on top of Default, so keys absent from the file keep their
// default values. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, errors.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Output.Format.Valid() {
		return errors.Errorf("[output].format must be one of %v, got '%s'", emit.Formats, c.Output.Format)
	}
	if c.Output.Format == emit.FormatProto && strings.TrimSpace(c.Output.ProtoPackage) == "" {
		return errors.New("[output].proto_package must not be empty")
	}
	if c.Output.Format == emit.FormatGo && strings.TrimSpace(c.Output.GoPackage) == "" {
		return errors.New("[output].go_package must not be empty")
	}
	if c.Resolve.Jobs < 0 {
		return errors.Errorf("[resolve].jobs must not be negative, got %d", c.Resolve.Jobs)
	}
	if c.Cache.Size <= 0 {
		return errors.Errorf("[cache].size must be positive, got %d", c.Cache.Size)
	}
	return nil
}

// EmitOptions returns the [output] settings the emitters consume.
func (c Config) EmitOptions() emit.Options {
	return emit.Options{
		License:        c.Output.License,
		SolidityPragma: c.Output.SolidityPragma,
		ProtoPackage:   c.Output.ProtoPackage,
		GoPackage:      c.Output.GoPackage,
	}
}
