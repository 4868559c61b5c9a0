package rowbase

import "log"

// Config holds the tunables every table registered on a Client inherits
// unless a table-specific TableOptions overrides them. It is built purely
// through functional options, mirroring the teacher's compiler/gen.Config.
type Config struct {
	PageSize     int
	MaxPages     int
	InitialPages int

	EnableParallelSorting bool
	ParallelSortThreshold int

	EnablePrefixIndex bool
	EnableSuffixIndex bool

	Logger func(...any)
	Cache  Cache
}

// Option configures a Config.
type Option func(*Config) error

// WithPageSize sets how many rows each page of a registered table holds.
func WithPageSize(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewBadInputError("WithPageSize", "page size must be positive")
		}
		c.PageSize = n
		return nil
	}
}

// WithMaxPages caps how many pages a registered table may grow to before
// Save starts returning a TableFullError.
func WithMaxPages(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewBadInputError("WithMaxPages", "max pages must be positive")
		}
		c.MaxPages = n
		return nil
	}
}

// WithInitialPages sets how many pages a registered table preallocates.
func WithInitialPages(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewBadInputError("WithInitialPages", "initial pages cannot be negative")
		}
		c.InitialPages = n
		return nil
	}
}

// WithParallelSorting toggles the sharded, errgroup-driven ORDER BY path
// for result sets above ParallelSortThreshold. Enabled by default.
func WithParallelSorting(enabled bool) Option {
	return func(c *Config) error {
		c.EnableParallelSorting = enabled
		return nil
	}
}

// WithParallelSortThreshold sets the candidate count above which ORDER BY
// shards across goroutines instead of sorting in place.
func WithParallelSortThreshold(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewBadInputError("WithParallelSortThreshold", "threshold must be positive")
		}
		c.ParallelSortThreshold = n
		return nil
	}
}

// WithPrefixIndex toggles whether fields declared PrefixIndexed actually
// get a PrefixIndex structure. Disabling it downgrades STARTING WITH
// conditions on such fields to a full column scan. Enabled by default.
func WithPrefixIndex(enabled bool) Option {
	return func(c *Config) error {
		c.EnablePrefixIndex = enabled
		return nil
	}
}

// WithSuffixIndex is WithPrefixIndex's counterpart for SuffixIndexed
// fields and ENDING WITH conditions.
func WithSuffixIndex(enabled bool) Option {
	return func(c *Config) error {
		c.EnableSuffixIndex = enabled
		return nil
	}
}

// WithLogger sets the logging hook used during table registration.
// Defaults to log.Println.
func WithLogger(fn func(...any)) Option {
	return func(c *Config) error {
		if fn == nil {
			return NewBadInputError("WithLogger", "logger cannot be nil")
		}
		c.Logger = fn
		return nil
	}
}

// WithCache sets the Cache used to memoize COUNT/EXISTS results. Nil (the
// default) disables memoization.
func WithCache(cache Cache) Option {
	return func(c *Config) error {
		c.Cache = cache
		return nil
	}
}

// Apply applies opts in order, returning the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// defaultConfig returns a Config with the engine's baseline tunables.
func defaultConfig() *Config {
	return &Config{
		PageSize:              4096,
		MaxPages:              1024,
		InitialPages:          1,
		EnableParallelSorting: true,
		ParallelSortThreshold: 4096,
		EnablePrefixIndex:     true,
		EnableSuffixIndex:     true,
		Logger:                log.Println,
	}
}

// NewConfig builds a Config from opts, starting from the engine defaults.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig is NewConfig but panics on error, for package-level wiring
// where a bad option is a programmer error.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
