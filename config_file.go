package vpxenc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML form of a SessionConfig.
type fileConfig struct {
	Codec         string `yaml:"codec"`
	BitrateMode   string `yaml:"bitrate_mode"`
	SessionConfig `yaml:",inline"`
}

// ParseSessionConfig decodes YAML over the defaults for VP8. A "codec" key
// switches the defaults' codec; "bitrate_mode" is "vbr" or "cbr".
func ParseSessionConfig(data []byte) (SessionConfig, error) {
	fc := fileConfig{SessionConfig: DefaultSessionConfig(CodecVP8)}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return SessionConfig{}, fmt.Errorf("%w: parse yaml: %w", ErrConfiguration, err)
	}
	cfg := fc.SessionConfig
	if fc.Codec != "" {
		c, ok := ParseCodec(fc.Codec)
		if !ok {
			return SessionConfig{}, fmt.Errorf("%w: unknown codec %q", ErrConfiguration, fc.Codec)
		}
		cfg.Codec = c
	}
	if fc.BitrateMode != "" {
		m, ok := ParseBitrateMode(fc.BitrateMode)
		if !ok {
			return SessionConfig{}, fmt.Errorf("%w: unknown bitrate mode %q", ErrConfiguration, fc.BitrateMode)
		}
		cfg.BitrateMode = m
	}
	if err := cfg.Validate(); err != nil {
		return SessionConfig{}, err
	}
	return cfg, nil
}

// LoadSessionConfig reads a YAML session file.
func LoadSessionConfig(path string) (SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionConfig{}, err
	}
	return ParseSessionConfig(data)
}

// MarshalSessionConfig encodes cfg in the format ParseSessionConfig reads.
func MarshalSessionConfig(cfg SessionConfig) ([]byte, error) {
	return yaml.Marshal(fileConfig{
		Codec:         cfg.Codec.String(),
		BitrateMode:   cfg.BitrateMode.String(),
		SessionConfig: cfg,
	})
}
