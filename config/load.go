package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "RXCORE_"

func searchPaths() []string {
	paths := []string{"/etc/rxcore/config.hcl"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rxcore", "config.hcl"))
	}
	return append(paths, "./config.hcl")
}

// FindConfigPath returns the first existing config file, or "".
func FindConfigPath() string {
	for _, path := range searchPaths() {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			log.Infof("Found config file: %s", path)
			return path
		}
	}
	log.Info("Config file not found!")
	return ""
}

// Load reads the HCL file at path, or the first one found on the search path
// when path is empty. If no file can be read the RXCORE_ environment variables
// are used instead. Keys missing from both keep their Default value.
func Load(path string) (*Conf, *koanf.Koanf, error) {
	k := koanf.New(".")
	if path == "" {
		path = FindConfigPath()
	}

	var fileErr error
	if path == "" {
		fileErr = errors.New("no config file")
	} else {
		fileErr = k.Load(file.Provider(path), hcl.Parser(true))
	}
	if fileErr != nil {
		log.Errorf("Could not read config file: %v", fileErr)
		log.Error("Attempting to use environment variables")
		if err := k.Load(env.Provider(".", env.Opt{
			Prefix:        EnvPrefix,
			TransformFunc: envKey,
		}), nil); err != nil {
			return nil, nil, err
		}
	}

	conf := Default()
	if err := k.Unmarshal("", &conf); err != nil {
		return nil, nil, err
	}
	log.Debugf("Loaded configuration: %##v", conf)
	return &conf, k, nil
}

// envKey maps RXCORE_NAVTEX_FREQUENCY_SHIFT to navtex.frequency_shift.
func envKey(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	key = strings.Replace(key, "_", ".", 1)
	log.Debugf("Found config env var: %s=%v", key, v)
	return key, v
}
