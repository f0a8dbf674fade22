package config // package config loads application configuration from environment variables

import (
    "log"     // log reports configuration errors and halts execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field maps to
// one environment variable: strings for identifiers and secrets, ints
// for durations and costs.
type Config struct {
    Env               string // application environment (e.g. "dev", "prod")
    Port              string // HTTP port to listen on
    DBUser            string // database username
    DBPass            string // database password (optional)
    DBHost            string // database host address
    DBPort            string // database port number
    DBName            string // database name
    JWTSecret         string // secret used to sign JWTs
    AccessTTLMin      int    // access token time-to-live in minutes
    RefreshTTLDays    int    // refresh token time-to-live in days
    BcryptCost        int    // bcrypt cost for password hashing
    ReservationTTLMin int    // payment window for a new reservation, in minutes
    PassValidityHours int    // validity window of an issued pass, in hours
    AMQPURL           string // RabbitMQ connection string for the PDF render queue
    GatewayBaseURL    string // base URL of the payment gateway redirect host
}

// Load reads configuration from the environment and returns a Config.
// Required variables are enforced by must(); missing values cause the
// program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:               must("APP_ENV"),
        Port:              must("APP_PORT"),
        DBUser:            must("DB_USER"),
        DBPass:            os.Getenv("DB_PASS"), // empty allowed
        DBHost:            must("DB_HOST"),
        DBPort:            must("DB_PORT"),
        DBName:            must("DB_NAME"),
        JWTSecret:         must("JWT_SECRET"),
        AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:    mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:        mustInt("BCRYPT_COST"),
        ReservationTTLMin: intOr("RESERVATION_TTL_MIN", 60),
        PassValidityHours: intOr("PASS_VALIDITY_HOURS", 72),
        AMQPURL:           os.Getenv("AMQP_URL"), // empty disables async rendering
        GatewayBaseURL:    strOr("GATEWAY_BASE_URL", "https://mock-payment-gateway.com"),
    }
}

// must retrieves a required environment variable or exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// strOr returns the variable's value or a default when unset.
func strOr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// intOr returns the variable parsed as int or a default when unset or
// malformed.
func intOr(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return n
}
