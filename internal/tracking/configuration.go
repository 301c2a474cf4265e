package tracking

import (
	"strings"

	"github.com/temirov/gitstat/internal/gitquery"
)

const (
	configurationFileKeyConstant      = "file"
	configurationRemoteKeyConstant    = "remote"
	configurationKeySeparatorConstant = "."
)

// CommandConfiguration captures persisted configuration values for the tracking commands.
type CommandConfiguration struct {
	File       string `mapstructure:"file"`
	RemoteName string `mapstructure:"remote"`
}

// DefaultCommandConfiguration leaves the store location to ResolveStorePath.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		File:       "",
		RemoteName: gitquery.DefaultRemoteNameConstant,
	}
}

// DefaultConfigurationValues returns the defaults keyed for the configuration loader beneath rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := rootKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationFileKeyConstant:   defaults.File,
		prefix + configurationRemoteKeyConstant: defaults.RemoteName,
	}
}

func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.File = strings.TrimSpace(configuration.File)
	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = gitquery.DefaultRemoteNameConstant
	}
	return sanitized
}
