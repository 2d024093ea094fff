package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToYAML renders s as YAML bytes, the same gopkg.in/yaml.v3 round-trip the
// teacher's runtime config manager used for RuntimeBusinessConfig.
func ToYAML(s Settings) ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return out, nil
}

// FromYAML parses YAML bytes into a Settings value.
func FromYAML(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}
