package mt

import (
	"log/slog"

	"golang.org/x/text/encoding"
)

// DefaultMaxDepth bounds how many times unparsed text may be re-parsed
// within unparsed text.
const DefaultMaxDepth = 8

// Config is the immutable configuration of a Parser. It may be shared
// between goroutines; Parsers may not.
type Config struct {
	// Strict makes structural errors fatal. The default, lenient, records
	// them as diagnostics and keeps the best partial result.
	Strict bool

	// Logger receives debug records for each block and a warning for each
	// diagnostic. Nil disables logging.
	Logger *slog.Logger

	// Encoding decodes input read by ParseReader when it carries no byte
	// order mark. Nil passes bytes through unchanged.
	Encoding encoding.Encoding

	// MaxInputSize rejects larger inputs with ErrInputTooLarge. Zero means
	// no limit.
	MaxInputSize int

	// MaxDepth limits nested re-parsing of unparsed text. Zero or less
	// means no limit.
	MaxDepth int
}

// Option configures a Parser.
type Option func(*Config)

func newConfig(opts ...Option) Config {
	c := Config{MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Strict makes structural errors fatal.
func Strict() Option {
	return func(c *Config) {
		c.Strict = true
	}
}

// Lenient degrades structural errors to diagnostics. This is the default.
func Lenient() Option {
	return func(c *Config) {
		c.Strict = false
	}
}

// WithLogger sets the logger for block and diagnostic records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithEncoding sets the character encoding ParseReader assumes when the
// input has no byte order mark.
func WithEncoding(enc encoding.Encoding) Option {
	return func(c *Config) {
		c.Encoding = enc
	}
}

// WithMaxInputSize rejects inputs longer than n bytes. Zero disables the limit.
func WithMaxInputSize(n int) Option {
	return func(c *Config) {
		c.MaxInputSize = n
	}
}

// WithMaxDepth limits how deep unparsed text may be re-parsed. Zero or less
// disables the limit.
func WithMaxDepth(n int) Option {
	return func(c *Config) {
		c.MaxDepth = n
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}
