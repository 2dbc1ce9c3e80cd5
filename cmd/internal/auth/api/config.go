package authapi

// Config controls auth API behavior.
type Config struct {
	// MaxBodyBytes caps request bodies on the JSON endpoints.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 1 << 20 // 1 MiB

// DefaultConfig returns the API defaults.
func DefaultConfig() Config {
	return Config{MaxBodyBytes: defaultMaxBodyBytes}
}

func (c Config) withDefaults() Config {
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}
