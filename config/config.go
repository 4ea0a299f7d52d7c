package config

// Config represents the complete ecl configuration
type Config struct {
	BaseDir string        `yaml:"-"` // Directory containing config file, for resolving relative paths
	Parser  ParserConfig  `yaml:"parser"`
	Format  FormatConfig  `yaml:"format"`
	Output  OutputConfig  `yaml:"output"`
	REPL    REPLConfig    `yaml:"repl"`
	Logging LoggingConfig `yaml:"logging"`
}

// ParserConfig holds parsing limits and grammar switches
type ParserConfig struct {
	MaxLength        int  `yaml:"max_length"`        // Input size limit in bytes, 0 = unlimited
	MaxDepth         int  `yaml:"max_depth"`         // Nesting limit for ( ) and { }, 0 = unlimited
	CommaConjunction bool `yaml:"comma_conjunction"` // Accept "," as AND between expression constraints
}

// FormatConfig holds pretty-printer settings
type FormatConfig struct {
	Width  int    `yaml:"width"`  // Target line width
	Indent string `yaml:"indent"` // One level of indentation
}

// OutputConfig selects how results and diagnostics are printed
type OutputConfig struct {
	Format string `yaml:"format"` // text or json
}

// REPLConfig holds interactive session settings
type REPLConfig struct {
	HistoryFile string `yaml:"history_file"` // Empty means $TMPDIR/.ecl_history
}

// LoggingConfig holds trace logging settings
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default limits.
const (
	DefaultMaxLength = 65536
	DefaultMaxDepth  = 256
	DefaultWidth     = 80
	DefaultIndent    = "  "
)

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Parser: ParserConfig{
			MaxLength: DefaultMaxLength,
			MaxDepth:  DefaultMaxDepth,
		},
		Format: FormatConfig{
			Width:  DefaultWidth,
			Indent: DefaultIndent,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
