package status

import (
	"runtime"
	"strings"
	"time"

	"github.com/temirov/gitstat/internal/gitquery"
)

const (
	configurationWorkersKeyConstant         = "workers"
	configurationTaskTimeoutKeyConstant     = "task_timeout"
	configurationQueryTimeoutKeyConstant    = "query_timeout"
	configurationRemoteKeyConstant          = "remote"
	configurationRefreshIndexKeyConstant    = "refresh_index"
	configurationIncludeIgnoredKeyConstant  = "include_ignored"
	configurationIncludeUpToDateKeyConstant = "include_up_to_date"
	configurationProgressKeyConstant        = "progress"
	configurationColorKeyConstant           = "color"
	configurationKeySeparatorConstant       = "."
	defaultTaskTimeoutConstant              = 2 * time.Minute
)

// CommandConfiguration captures persisted configuration values for the status commands.
type CommandConfiguration struct {
	Workers         int           `mapstructure:"workers"`
	TaskTimeout     time.Duration `mapstructure:"task_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	RemoteName      string        `mapstructure:"remote"`
	RefreshIndex    bool          `mapstructure:"refresh_index"`
	IncludeIgnored  bool          `mapstructure:"include_ignored"`
	IncludeUpToDate bool          `mapstructure:"include_up_to_date"`
	Progress        bool          `mapstructure:"progress"`
	Color           bool          `mapstructure:"color"`
}

// DefaultCommandConfiguration provides baseline configuration values for the status commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Workers:         runtime.NumCPU(),
		TaskTimeout:     defaultTaskTimeoutConstant,
		QueryTimeout:    0,
		RemoteName:      gitquery.DefaultRemoteNameConstant,
		RefreshIndex:    true,
		IncludeIgnored:  false,
		IncludeUpToDate: false,
		Progress:        false,
		Color:           true,
	}
}

// DefaultConfigurationValues returns the defaults keyed for the configuration loader beneath rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := rootKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationWorkersKeyConstant:         defaults.Workers,
		prefix + configurationTaskTimeoutKeyConstant:     defaults.TaskTimeout,
		prefix + configurationQueryTimeoutKeyConstant:    defaults.QueryTimeout,
		prefix + configurationRemoteKeyConstant:          defaults.RemoteName,
		prefix + configurationRefreshIndexKeyConstant:    defaults.RefreshIndex,
		prefix + configurationIncludeIgnoredKeyConstant:  defaults.IncludeIgnored,
		prefix + configurationIncludeUpToDateKeyConstant: defaults.IncludeUpToDate,
		prefix + configurationProgressKeyConstant:        defaults.Progress,
		prefix + configurationColorKeyConstant:           defaults.Color,
	}
}

// sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	if len(sanitized.RemoteName) == 0 {
		sanitized.RemoteName = gitquery.DefaultRemoteNameConstant
	}
	return sanitized
}

// RunConfiguration converts persisted values into the configuration of one run.
func (configuration CommandConfiguration) RunConfiguration() RunConfiguration {
	sanitized := configuration.sanitize()
	return RunConfiguration{
		IncludeIgnored:  sanitized.IncludeIgnored,
		IncludeUpToDate: sanitized.IncludeUpToDate,
		WorkerCount:     sanitized.Workers,
		PerTaskTimeout:  sanitized.TaskTimeout,
		QueryTimeout:    sanitized.QueryTimeout,
		RemoteName:      sanitized.RemoteName,
		RefreshIndex:    sanitized.RefreshIndex,
	}
}
