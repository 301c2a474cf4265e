// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the Viper backed ConfigurationLoader, the zap LoggerFactory and
// ExitStatusError, which carries a process exit code out of a cobra command.
package utils
