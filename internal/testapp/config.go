package testapp

import "time"

// Config holds configuration for the test application server.
type Config struct {
	// Addr is the listen address.
	Addr string

	// AuthUser and AuthPassword protect /auth.
	AuthUser     string
	AuthPassword string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            "localhost:8000",
		AuthUser:        "davert",
		AuthPassword:    "password",
		ShutdownTimeout: 5 * time.Second,
	}
}
