// Package utils exposes reusable helpers consumed by multiple commands.
//
// ConfigurationLoader integrates Viper, embedded defaults and environment
// overrides; LoggerFactory builds zap loggers; CommandContextAccessor carries
// per-invocation values such as the configuration file and workspace root.
package utils
