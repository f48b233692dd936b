package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configPath string
	mcpStdio   bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath enables hot reload of runtime patrol settings from the
// given file.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithStdioMCP runs the MCP server on stdin/stdout instead of the HTTP
// server.
func WithStdioMCP() Option {
	return func(a *application) {
		a.mcpStdio = true
	}
}
