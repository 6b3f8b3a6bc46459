// Package utils holds the ambient plumbing shared by sdsaudit commands:
// the Viper-backed ConfigurationLoader (embedded defaults, config files,
// dotenv files and prefixed environment variables) and the zap LoggerFactory.
package utils
