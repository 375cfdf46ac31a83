package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// jsonConfig mirrors Config for file loading. Durations are Go duration
// strings such as "30s" or "24h". Empty values leave the current setting.
type jsonConfig struct {
	Addr           string   `json:"addr"`
	DatabaseDSN    string   `json:"database_dsn"`
	SecretKey      string   `json:"secret_key"`
	TokenTTL       string   `json:"token_ttl"`
	RequestTimeout string   `json:"request_timeout"`
	MaxUploadBytes int64    `json:"max_upload_bytes"`
	CORSOrigins    []string `json:"cors_origins"`
	LogLevel       string   `json:"log_level"`
	StorageBackend string   `json:"storage_backend"`
	MediaRoot      string   `json:"media_root"`
	S3Bucket       string   `json:"s3_bucket"`
	S3Region       string   `json:"s3_region"`
	S3BaseEndpoint string   `json:"s3_base_endpoint"`
	S3AccessKey    string   `json:"s3_access_key"`
	S3SecretKey    string   `json:"s3_secret_key"`
}

func applyJSONFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Addr, jc.Addr)
	set(&c.DatabaseDSN, jc.DatabaseDSN)
	set(&c.SecretKey, jc.SecretKey)
	set(&c.LogLevel, jc.LogLevel)
	set(&c.StorageBackend, jc.StorageBackend)
	set(&c.MediaRoot, jc.MediaRoot)
	set(&c.S3Bucket, jc.S3Bucket)
	set(&c.S3Region, jc.S3Region)
	set(&c.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&c.S3AccessKey, jc.S3AccessKey)
	set(&c.S3SecretKey, jc.S3SecretKey)

	if jc.TokenTTL != "" {
		d, err := time.ParseDuration(jc.TokenTTL)
		if err != nil {
			return fmt.Errorf("invalid token_ttl %q: %w", jc.TokenTTL, err)
		}
		c.TokenTTL = d
	}
	if jc.RequestTimeout != "" {
		d, err := time.ParseDuration(jc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout %q: %w", jc.RequestTimeout, err)
		}
		c.RequestTimeout = d
	}
	if jc.MaxUploadBytes > 0 {
		c.MaxUploadBytes = jc.MaxUploadBytes
	}
	if len(jc.CORSOrigins) > 0 {
		c.CORSOrigins = jc.CORSOrigins
	}
	return nil
}
