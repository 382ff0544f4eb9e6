package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/armviz/logging"
	"go.viam.com/armviz/utils"
)

// Read reads a config from the given file. ${VAR} references are expanded from the environment before
// decoding.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := &Config{ConfigFilePath: originalPath}
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	if err := cfg.Validate(""); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	if originalPath != "" {
		dir, err := filepath.Abs(filepath.Dir(originalPath))
		if err != nil {
			return nil, err
		}
		cfg.URDF = utils.ResolveRelative(dir, cfg.URDF)
		cfg.LogFile = utils.ResolveRelative(dir, cfg.LogFile)
	}
	if cfg.FrameRateHz == 0 {
		cfg.FrameRateHz = DefaultFrameRateHz
	}
	logger.Debugw("read config", "path", originalPath, "urdf", cfg.URDF, "frame_rate_hz", cfg.FrameRateHz)
	return cfg, nil
}
