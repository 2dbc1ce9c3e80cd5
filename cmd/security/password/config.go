package password

import (
	"fmt"
	"runtime"

	"github.com/ilyakaznacheev/cleanenv"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls password validation and anti-DoS boundaries.
type Policy struct {
	MinLength int
	MaxLength int
	// RejectVeryWeak enables a minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns interactive-login Argon2id costs and a permissive
// length policy (any non-empty password up to 256 runes).
func DefaultConfig() Config {
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      1,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
	}
}

// envConfig is the environment surface. Zero values mean "keep the default".
type envConfig struct {
	MinLength      int    `env:"ACCOUNTS_PASSWORD_MIN_LEN"`
	MaxLength      int    `env:"ACCOUNTS_PASSWORD_MAX_LEN"`
	RejectVeryWeak bool   `env:"ACCOUNTS_PASSWORD_REJECT_VERY_WEAK"`
	MemoryKiB      uint32 `env:"ACCOUNTS_ARGON2_MEMORY_KIB"`
	Iterations     uint32 `env:"ACCOUNTS_ARGON2_ITERATIONS"`
	Parallelism    uint32 `env:"ACCOUNTS_ARGON2_PARALLELISM"`
	SaltLength     uint32 `env:"ACCOUNTS_ARGON2_SALT_LEN"`
	KeyLength      uint32 `env:"ACCOUNTS_ARGON2_KEY_LEN"`
}

// FromEnv loads config from ACCOUNTS_PASSWORD_* and ACCOUNTS_ARGON2_* variables.
// Values outside sane ranges are rejected rather than clamped.
func FromEnv() (Config, error) {
	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return Config{}, fmt.Errorf("password config: %w", err)
	}
	return env.apply(DefaultConfig())
}

func (e envConfig) apply(cfg Config) (Config, error) {
	if e.MinLength != 0 {
		if err := inRange("ACCOUNTS_PASSWORD_MIN_LEN", int64(e.MinLength), 1, 1024); err != nil {
			return Config{}, err
		}
		cfg.Policy.MinLength = e.MinLength
	}
	if e.MaxLength != 0 {
		if err := inRange("ACCOUNTS_PASSWORD_MAX_LEN", int64(e.MaxLength), 1, 4096); err != nil {
			return Config{}, err
		}
		cfg.Policy.MaxLength = e.MaxLength
	}
	cfg.Policy.RejectVeryWeak = e.RejectVeryWeak

	if e.MemoryKiB != 0 {
		if err := inRange("ACCOUNTS_ARGON2_MEMORY_KIB", int64(e.MemoryKiB), 8*1024, 1024*1024); err != nil {
			return Config{}, err
		}
		cfg.Params.MemoryKiB = e.MemoryKiB
	}
	if e.Iterations != 0 {
		if err := inRange("ACCOUNTS_ARGON2_ITERATIONS", int64(e.Iterations), 1, 20); err != nil {
			return Config{}, err
		}
		cfg.Params.Iterations = e.Iterations
	}
	if e.Parallelism != 0 {
		if err := inRange("ACCOUNTS_ARGON2_PARALLELISM", int64(e.Parallelism), 1, 64); err != nil {
			return Config{}, err
		}
		cfg.Params.Parallelism = uint8(e.Parallelism) // #nosec G115 -- bounded above.
	}
	if e.SaltLength != 0 {
		if err := inRange("ACCOUNTS_ARGON2_SALT_LEN", int64(e.SaltLength), 8, 64); err != nil {
			return Config{}, err
		}
		cfg.Params.SaltLength = e.SaltLength
	}
	if e.KeyLength != 0 {
		if err := inRange("ACCOUNTS_ARGON2_KEY_LEN", int64(e.KeyLength), 16, 64); err != nil {
			return Config{}, err
		}
		cfg.Params.KeyLength = e.KeyLength
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}
	return cfg, nil
}

func inRange(key string, v, minVal, maxVal int64) error {
	if v < minVal || v > maxVal {
		return fmt.Errorf("%s: out of range [%d..%d]", key, minVal, maxVal)
	}
	return nil
}
