package config // package config loads application configuration from environment variables

import (
	"errors"  // errors.Join collects every missing variable into one error
	"fmt"     // fmt builds the DSN and error messages
	"os"      // os provides access to environment variables
	"strings" // strings splits list-valued variables
)

// Config holds all runtime configuration values.  It is built once by
// Load at process start and handed to the components that need it; no
// package reads secrets from the environment after that.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	LogLevel string // zap level name (debug, info, warn, error)

	DBDSN  string // full MySQL DSN; when empty the DB_* parts below are used
	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret    string // secret used to sign session tokens
	AdminPassKey string // shared passkey required to file an admin request
	BcryptCost   int    // bcrypt cost for password hashing

	SuperAdmin SuperAdminSeed // credentials seeded at startup

	UploadMaxBytes int64    // cap on multipart upload bodies
	JSONBodyLimit  string   // echo BodyLimit value for JSON routes (e.g. "10M")
	CORSOrigins    []string // allowed CORS origins; empty means "*"

	RabbitURL string     // AMQP url for notification events; empty disables them
	SMTP      SMTPConfig // outbound mail for notifications
}

// SuperAdminSeed holds the credentials of the account guaranteed to
// exist after startup.  Seeding is skipped unless all three are set.
type SuperAdminSeed struct {
	Username string
	Email    string
	Password string
}

// Complete reports whether every seed field was provided.
func (s SuperAdminSeed) Complete() bool {
	return s.Username != "" && s.Email != "" && s.Password != ""
}

// SMTPConfig holds SMTP server configuration.  An empty Host means mail
// is logged instead of sent.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration values from environment variables.  Every
// missing required variable is reported in the returned error so a
// misconfigured deployment fails once with the full list.
func Load() (Config, error) {
	var errs []error
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}

	cfg := Config{
		Env:      getenv("APP_ENV", "dev"),
		Port:     getenv("APP_PORT", "5000"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDSN:  os.Getenv("DB_DSN"),
		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: getenv("DB_HOST", "localhost"),
		DBPort: getenv("DB_PORT", "3306"),
		DBName: os.Getenv("DB_NAME"),

		JWTSecret:    required("JWT_SECRET"),
		AdminPassKey: required("ADMIN_PASSKEY"),
		BcryptCost:   envInt("BCRYPT_COST", 10),

		SuperAdmin: SuperAdminSeed{
			Username: os.Getenv("SUPERADMIN_USERNAME"),
			Email:    strings.ToLower(strings.TrimSpace(os.Getenv("SUPERADMIN_EMAIL"))),
			Password: os.Getenv("SUPERADMIN_PASSWORD"),
		},

		UploadMaxBytes: int64(envInt("UPLOAD_MAX_BYTES", 32<<20)),
		JSONBodyLimit:  getenv("JSON_BODY_LIMIT", "10M"),
		CORSOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		RabbitURL: os.Getenv("RABBITMQ_URL"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", "no-reply@excellense.local"),
		},
	}
	if cfg.DBDSN == "" && (cfg.DBUser == "" || cfg.DBName == "") {
		errs = append(errs, errors.New("missing database connection: set DB_DSN or DB_USER and DB_NAME"))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// DSN returns the MySQL data source name.  A DSN assembled from parts
// always asks the driver for parseTime=true and UTC so DATETIME columns
// scan into time.Time.
func (c Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	auth := c.DBUser
	if c.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.DBHost, c.DBPort, c.DBName)
}

// IsProduction reports whether the app runs with APP_ENV=prod|production.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
