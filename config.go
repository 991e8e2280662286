package guidancedesk

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// StoreBackend selects the document-store implementation.
type StoreBackend string

const (
	// BackendRedis stores documents in Redis (default).
	BackendRedis StoreBackend = "redis"
	// BackendPostgres stores documents in a Postgres JSONB table.
	BackendPostgres StoreBackend = "postgres"
)

// Config is the full engine and server configuration. All values are
// environment-supplied in production; zero values are filled by defaults
// before validation.
type Config struct {
	ListenAddr string `env:"GUIDANCE_LISTEN_ADDR" envDefault:":8080"`

	// DevMode relaxes the Secure flag on the session cookie so local
	// HTTP development works. Never enable in production.
	DevMode bool `env:"GUIDANCE_DEV_MODE"`

	// SigningSecret signs session tokens (HMAC-SHA256). Minimum 32 bytes.
	SigningSecret string `env:"GUIDANCE_SIGNING_SECRET"`

	Store    StoreConfig    `envPrefix:"GUIDANCE_STORE_"`
	OTP      OTPConfig      `envPrefix:"GUIDANCE_OTP_"`
	Session  SessionConfig  `envPrefix:"GUIDANCE_SESSION_"`
	Password PasswordConfig `envPrefix:"GUIDANCE_PASSWORD_"`
	Mail     MailConfig     `envPrefix:"GUIDANCE_MAIL_"`
	Sweep    SweepConfig    `envPrefix:"GUIDANCE_SWEEP_"`
}

// StoreConfig selects and addresses the document-store backend, and names
// the collections the engine reads and writes.
type StoreConfig struct {
	Backend   StoreBackend `env:"BACKEND" envDefault:"redis"`
	RedisAddr string       `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DSN       string       `env:"DSN"`
	KeyPrefix string       `env:"KEY_PREFIX" envDefault:"gd"`

	OTPCollection         string `env:"OTP_COLLECTION" envDefault:"otps"`
	SessionCollection     string `env:"SESSION_COLLECTION" envDefault:"sessions"`
	CounselorCollection   string `env:"COUNSELOR_COLLECTION" envDefault:"counselors"`
	PatientCollection     string `env:"PATIENT_COLLECTION" envDefault:"patients"`
	AppointmentCollection string `env:"APPOINTMENT_COLLECTION" envDefault:"appointments"`
}

// OTPConfig controls one-time code issuance.
type OTPConfig struct {
	TTL    time.Duration `env:"TTL" envDefault:"5m"`
	Digits int           `env:"DIGITS" envDefault:"6"`
}

// SessionConfig controls minted sessions and the cookie carrying them.
type SessionConfig struct {
	TTL        time.Duration `env:"TTL" envDefault:"24h"`
	CookieName string        `env:"COOKIE_NAME" envDefault:"counselorToken"`
	Issuer     string        `env:"ISSUER" envDefault:"guidancedesk"`
}

// PasswordConfig holds the argon2id parameters.
type PasswordConfig struct {
	Memory      uint32 `env:"MEMORY_KB" envDefault:"65536"`
	Time        uint32 `env:"TIME" envDefault:"2"`
	Parallelism uint8  `env:"PARALLELISM" envDefault:"2"`
	SaltLength  uint32 `env:"SALT_LENGTH" envDefault:"16"`
	KeyLength   uint32 `env:"KEY_LENGTH" envDefault:"32"`
	MinLength   int    `env:"MIN_LENGTH" envDefault:"8"`
}

// MailConfig addresses the SMTP collaborator.
type MailConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// SweepConfig controls eviction of expired OTP and session documents.
// Interval 0 disables the sweeper.
type SweepConfig struct {
	Interval time.Duration `env:"INTERVAL" envDefault:"10m"`
}

// DefaultConfig returns a Config with every default applied and no
// environment lookup. Tests start from here.
func DefaultConfig() Config {
	cfg, _ := env.ParseAsWithOptions[Config](env.Options{Environment: map[string]string{}})
	return cfg
}

// FromEnv parses the configuration from process environment variables.
func FromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if len(c.SigningSecret) < 32 {
		return errors.New("signing secret must be at least 32 bytes")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("otp ttl must be positive")
	}
	if c.OTP.Digits != 6 {
		return errors.New("otp digits must be 6")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("session cookie name required")
	}
	if c.Store.Backend != BackendRedis && c.Store.Backend != BackendPostgres {
		return errors.New("unknown store backend")
	}
	if c.Store.Backend == BackendPostgres && c.Store.DSN == "" {
		return errors.New("postgres backend requires a dsn")
	}
	if c.Password.MinLength < 8 {
		return errors.New("password min length must be at least 8")
	}
	return nil
}
