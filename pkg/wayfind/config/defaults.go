// Package config provides application configuration for wayfind.
package config

// Default configuration values for wayfind.
const (
	// DefaultFormat is the output format when stdout is a terminal.
	DefaultFormat = "plain"

	// DefaultLimit is the maximum number of results printed.
	DefaultLimit = 100

	// DefaultHistoryRetentionDays is how long search history entries are
	// kept before pruning.
	DefaultHistoryRetentionDays = 30
)

// DefaultExcludes are glob patterns excluded from every search unless
// overridden. These match the noise directories a path search never wants.
var DefaultExcludes = []string{
	".git",
	".svn",
	"node_modules",
	"__pycache__",
	".DS_Store",
}
