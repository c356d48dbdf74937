package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Janitor JanitorConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for managed-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

// SecretSet carries the signing secrets for one principal type.
// Access, refresh and stage credentials never share a secret; a token
// minted for one class must fail verification under every other class.
type SecretSet struct {
	Access  string
	Refresh string
	Stage   string
}

type AuthConfig struct {
	AdminSecrets    SecretSet
	CustomerSecrets SecretSet

	Issuer string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	StageTokenTTL   time.Duration
	OTPCodeTTL      time.Duration

	// CookieDomain is empty for host-only cookies (local dev).
	CookieDomain string
	CookieSecure bool
}

type JanitorConfig struct {
	Interval time.Duration

	// PendingTTL is how long an unverified registration may sit before
	// the janitor reclaims it.
	PendingTTL time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.AdminSecrets = SecretSet{
		Access:  os.Getenv("JWT_ADMIN_ACCESS_SECRET"),
		Refresh: os.Getenv("JWT_ADMIN_REFRESH_SECRET"),
		Stage:   os.Getenv("JWT_ADMIN_STAGE_SECRET"),
	}
	c.Auth.CustomerSecrets = SecretSet{
		Access:  os.Getenv("JWT_CUSTOMER_ACCESS_SECRET"),
		Refresh: os.Getenv("JWT_CUSTOMER_REFRESH_SECRET"),
		Stage:   os.Getenv("JWT_CUSTOMER_STAGE_SECRET"),
	}
	c.Auth.Issuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))

	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")
	c.Auth.StageTokenTTL = mustDuration("JWT_STAGE_TTL")
	c.Auth.OTPCodeTTL = mustDuration("OTP_CODE_TTL")

	c.Auth.CookieDomain = strings.TrimSpace(os.Getenv("COOKIE_DOMAIN"))
	c.Auth.CookieSecure = strings.TrimSpace(os.Getenv("COOKIE_SECURE")) == "true"

	c.Janitor.Interval = mustDuration("JANITOR_INTERVAL")
	c.Janitor.PendingTTL = mustDuration("JANITOR_PENDING_TTL")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	// A missing signing secret is a deployment mistake, never an auth
	// failure. Refuse to start rather than reject every credential at
	// request time.
	errs = append(errs, c.Auth.AdminSecrets.validate("JWT_ADMIN")...)
	errs = append(errs, c.Auth.CustomerSecrets.validate("JWT_CUSTOMER")...)

	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 1 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.StageTokenTTL <= 0 {
		c.Auth.StageTokenTTL = 10 * time.Minute
	}
	if c.Auth.OTPCodeTTL <= 0 {
		c.Auth.OTPCodeTTL = 5 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}
	if c.Auth.StageTokenTTL >= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_STAGE_TTL must be less than JWT_ACCESS_TTL"))
	}

	if c.Janitor.Interval <= 0 {
		c.Janitor.Interval = 1 * time.Hour
	}
	if c.Janitor.PendingTTL <= 0 {
		c.Janitor.PendingTTL = 24 * time.Hour
	}

	return joinErrors(errs)
}

func (s SecretSet) validate(prefix string) []error {
	var errs []error
	if s.Access == "" {
		errs = append(errs, fmt.Errorf("%s_ACCESS_SECRET is required", prefix))
	}
	if s.Refresh == "" {
		errs = append(errs, fmt.Errorf("%s_REFRESH_SECRET is required", prefix))
	}
	if s.Stage == "" {
		errs = append(errs, fmt.Errorf("%s_STAGE_SECRET is required", prefix))
	}
	// Reused secrets would collapse the class partition silently.
	if s.Access != "" && (s.Access == s.Refresh || s.Access == s.Stage) || (s.Refresh != "" && s.Refresh == s.Stage) {
		errs = append(errs, fmt.Errorf("%s access/refresh/stage secrets must be distinct", prefix))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
