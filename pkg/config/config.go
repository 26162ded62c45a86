package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is passed to envconfig when processing the environment.
const EnvPrefix = "W2T"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "W2T_DB_DSN"
	EnvDBHost = "W2T_DB_HOST"
	EnvDBUser = "W2T_DB_USER"
	EnvDBName = "W2T_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Square        SquareConfig
	Checkout      CheckoutConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"W2T_APP_ENV" required:"true"`
	Port         string `envconfig:"W2T_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"W2T_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"W2T_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"W2T_DB_DSN"`
	Driver string `envconfig:"W2T_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"W2T_DB_HOST"`
	LegacyPort     int    `envconfig:"W2T_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"W2T_DB_USER"`
	LegacyPassword string `envconfig:"W2T_DB_PASSWORD"`
	LegacyName     string `envconfig:"W2T_DB_NAME"`
	LegacySSLMode  string `envconfig:"W2T_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"W2T_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"W2T_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"W2T_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"W2T_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"W2T_REDIS_URL" required:"true"`
	Address      string        `envconfig:"W2T_REDIS_ADDR"`
	Password     string        `envconfig:"W2T_REDIS_PASSWORD"`
	DB           int           `envconfig:"W2T_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"W2T_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"W2T_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"W2T_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"W2T_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"W2T_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"W2T_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"W2T_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"W2T_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"W2T_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"W2T_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"W2T_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"W2T_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"W2T_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"W2T_ARGON_KEY_LEN" default:"32"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"W2T_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"W2T_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"W2T_SQUARE_LOCATION_ID"`
	Currency    string `envconfig:"W2T_SQUARE_CURRENCY" default:"USD"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type CheckoutConfig struct {
	// MinChargeCents mirrors the gateway's processing minimum; submissions
	// below it fail before any charge attempt.
	MinChargeCents       int64         `envconfig:"W2T_CHECKOUT_MIN_CHARGE_CENTS" default:"100"`
	MinOperationDuration time.Duration `envconfig:"W2T_CHECKOUT_MIN_OPERATION_DURATION" default:"2s"`
	SessionTTL           time.Duration `envconfig:"W2T_CHECKOUT_SESSION_TTL" default:"24h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"W2T_AUTH_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"W2T_AUTH_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"W2T_AUTH_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"W2T_AUTH_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"W2T_AUTH_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"W2T_AUTH_REGISTER_EMAIL_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"W2T_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"W2T_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
