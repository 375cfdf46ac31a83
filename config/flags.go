package config

import (
	"flag"
	"io"
	"strings"
)

// applyFlags overlays command-line flags on c. A -c/-config file is read
// before the remaining flags so explicit flags still win over it.
//
//	-c string   JSON config file
//	-a string   listen address (":8080")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-t duration token lifetime
//	-storage    image storage backend (local|s3)
//	-media      media root for local storage
//	-cors       comma-separated allowed origins
func applyFlags(c *Config, args []string) error {
	fs := flag.NewFlagSet("recipes", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configFile string
	fs.StringVar(&configFile, "c", "", "JSON config file")
	fs.StringVar(&configFile, "config", "", "JSON config file")

	addr := fs.String("a", "", "address and port to listen on")
	dsn := fs.String("d", "", "database DSN")
	secret := fs.String("s", "", "token signing secret")
	ttl := fs.Duration("t", 0, "token lifetime")
	backend := fs.String("storage", "", "image storage backend (local|s3)")
	media := fs.String("media", "", "media root for local image storage")
	cors := fs.String("cors", "", "comma-separated list of allowed CORS origins")
	logLevel := fs.String("log-level", "", "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if configFile != "" {
		if err := applyJSONFile(c, configFile); err != nil {
			return err
		}
	}

	if *addr != "" {
		c.Addr = *addr
	}
	if *dsn != "" {
		c.DatabaseDSN = *dsn
	}
	if *secret != "" {
		c.SecretKey = *secret
	}
	if *ttl > 0 {
		c.TokenTTL = *ttl
	}
	if *backend != "" {
		c.StorageBackend = strings.ToLower(*backend)
	}
	if *media != "" {
		c.MediaRoot = *media
	}
	if *cors != "" {
		c.CORSOrigins = splitList(*cors)
	}
	if *logLevel != "" {
		c.LogLevel = *logLevel
	}
	return nil
}
