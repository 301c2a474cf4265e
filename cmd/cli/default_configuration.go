package cli

import (
	"bytes"
	_ "embed"
)

// defaultConfigurationDocument holds the values every key takes before files, environment and flags apply.
//
//go:embed default_config.yaml
var defaultConfigurationDocument []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in configuration and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(defaultConfigurationDocument), configurationTypeConstant
}
