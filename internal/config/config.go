package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The four signing/secret values are required and
// have no default: the token manager, session store and cookie layer are
// useless (and dangerous) without them.
type Config struct {
    Env             string // application environment (e.g. "dev", "prod")
    Port            string // HTTP port to listen on
    DBUser          string // database username
    DBPass          string // database password (optional)
    DBHost          string // database host address
    DBPort          string // database port number
    DBName          string // database name
    AccessTokenKey  string // secret used to sign access tokens
    RefreshTokenKey string // secret used to sign refresh tokens
    SessionSecret   string // secret mixed into server-side session ids
    CookieSecret    string // secret used to HMAC-sign cookie values
    AccessTTLMin    int    // access token time-to-live in minutes
    RefreshTTLDays  int    // refresh token time-to-live in days
    SessionTTLHours int    // rolling session time-to-live in hours
    BcryptCost      int    // bcrypt cost for password hashing
    UploadDir       string // directory where uploaded images are stored
    ExportDir       string // directory where note exports are written
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),          // environment (dev/test/prod)
        Port:            must("APP_PORT"),         // port to bind the HTTP server
        DBUser:          must("DB_USER"),          // database user
        DBPass:          os.Getenv("DB_PASS"),     // database password (empty allowed)
        DBHost:          must("DB_HOST"),          // database host
        DBPort:          must("DB_PORT"),          // database port
        DBName:          must("DB_NAME"),          // database name
        AccessTokenKey:  must("ACCESS_TOKEN_KEY"),  // signing key for access tokens
        RefreshTokenKey: must("REFRESH_TOKEN_KEY"), // signing key for refresh tokens
        SessionSecret:   must("SESSION_SECRET"),    // session secret
        CookieSecret:    must("COOKIE_SECRET"),     // cookie signing secret
        AccessTTLMin:    intOr("ACCESS_TOKEN_TTL_MIN", 15),   // TTL for access tokens in minutes
        RefreshTTLDays:  intOr("REFRESH_TOKEN_TTL_DAYS", 7),  // TTL for refresh tokens in days
        SessionTTLHours: intOr("SESSION_TTL_HOURS", 24),      // rolling session TTL in hours
        BcryptCost:      intOr("BCRYPT_COST", 10),            // bcrypt cost factor
        UploadDir:       getenv("UPLOAD_DIR", "uploads/images"),
        ExportDir:       getenv("EXPORT_DIR", "exports"),
    }
}

// Production reports whether the app runs with production hardening
// (e.g. Secure cookies).  Anything other than "prod" is treated as a
// development environment.
func (c Config) Production() bool { return c.Env == "prod" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// intOr converts an optional environment variable into an integer, falling
// back to the given default when unset.  An unparsable value is fatal rather
// than silently ignored.
func intOr(key string, def int) int {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
