// Package utils holds the configuration and logging plumbing shared by every command.
//
// ConfigurationLoader layers defaults, embedded configuration, files and
// environment variables through Viper. LoggerFactory builds zap loggers.
package utils
