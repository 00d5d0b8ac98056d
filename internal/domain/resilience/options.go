package resilience

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithMinLevel sets the lower bound of the level window used by Level.
func WithMinLevel(level int) Option {
	return func(c *Calculator) {
		if level > 0 {
			c.minLevel = level
		}
	}
}

// WithCacheSize configures the memo cache: n > 0 bounds it to n entries,
// n == 0 disables memoization, n < 0 makes the cache unbounded.
func WithCacheSize(n int) Option {
	return func(c *Calculator) {
		c.cacheSize = n
	}
}
