package guidancedesk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuskit/guidancedesk/docstore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "otps", cfg.Store.OTPCollection)
	assert.Equal(t, "sessions", cfg.Store.SessionCollection)
	assert.Equal(t, "counselors", cfg.Store.CounselorCollection)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 6, cfg.OTP.Digits)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "counselorToken", cfg.Session.CookieName)
	assert.Equal(t, 8, cfg.Password.MinLength)
	assert.Equal(t, 10*time.Minute, cfg.Sweep.Interval)
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.SigningSecret = "0123456789abcdef0123456789abcdef"
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(c *Config) { c.SigningSecret = "short" }},
		{"zero otp ttl", func(c *Config) { c.OTP.TTL = 0 }},
		{"wrong digits", func(c *Config) { c.OTP.Digits = 4 }},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"empty cookie name", func(c *Config) { c.Session.CookieName = "" }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }},
		{"weak password floor", func(c *Config) { c.Password.MinLength = 4 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GUIDANCE_LISTEN_ADDR", ":9090")
	t.Setenv("GUIDANCE_STORE_BACKEND", "postgres")
	t.Setenv("GUIDANCE_STORE_DSN", "postgres://localhost/guidance")
	t.Setenv("GUIDANCE_OTP_TTL", "10m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/guidance", cfg.Store.DSN)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	// Untouched values keep their defaults.
	assert.Equal(t, "counselorToken", cfg.Session.CookieName)
}

func TestBuilderSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	builder := New().
		WithConfig(testConfig()).
		WithStore(docstore.NewRedisStore(rdb, "gdtest")).
		WithMailer(&fakeMailer{})

	_, err := builder.Build()
	require.NoError(t, err)

	_, err = builder.Build()
	assert.Error(t, err, "a builder must not be reusable")
}

func TestBuilderRequiresCollaborators(t *testing.T) {
	_, err := New().WithConfig(testConfig()).Build()
	assert.Error(t, err, "Build must fail without a store")

	mr, rdb := newTestRedis(t)
	defer mr.Close()

	_, err = New().
		WithConfig(testConfig()).
		WithStore(docstore.NewRedisStore(rdb, "gdtest")).
		Build()
	assert.Error(t, err, "Build must fail without a mailer")
}
