// Package utils exposes reusable helpers shared by the lab2hub commands.
//
// It houses the Viper-backed ConfigurationLoader, the zap LoggerFactory, and
// the command context accessor that carries resolved settings into Cobra
// subcommands.
package utils
