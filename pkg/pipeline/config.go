package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/noderelax/pkg/errors"
)

// ConfigFileName is the name of the config file inside the config directory.
const ConfigFileName = "config.toml"

// DefaultConfigPath returns $XDG_CONFIG_HOME/noderelax/config.toml, or the
// platform equivalent.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "noderelax", ConfigFileName), nil
}

// LoadConfig reads options from a TOML file. Keys missing from the file
// keep their defaults; unknown keys are an INVALID_CONFIG error so that
// typos do not go unnoticed.
func LoadConfig(path string) (Options, error) {
	opts := DefaultOptions()
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		if os.IsNotExist(err) {
			return Options{}, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
		}
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := opts.Validate(); err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return opts, nil
}

// LoadConfigOrDefault is like [LoadConfig] but returns the defaults when
// the file does not exist.
func LoadConfigOrDefault(path string) (Options, error) {
	opts, err := LoadConfig(path)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return DefaultOptions(), nil
	}
	return opts, err
}

// WriteConfig encodes the serializable sections of opts as TOML:
//
//	[arrange]
//	distance = 80.0
//	iterations = [200, 200, 200, 200]
//	...
//	[brush]
//	brush_size = 150.0
//	...
//	[render]
//	formats = ["svg"]
func WriteConfig(w io.Writer, opts Options) error {
	return toml.NewEncoder(w).Encode(opts)
}
