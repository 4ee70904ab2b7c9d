package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first when present; a missing file is not
// an error.
//
// Recognized variables: UCHAN_ADDR, UCHAN_DATABASE_DSN, UCHAN_SECRET_KEY,
// UCHAN_MEDIA_BACKEND, UCHAN_MEDIA_DIR, UCHAN_MAX_UPLOAD_BYTES,
// UCHAN_S3_USER, UCHAN_S3_PASSWORD, UCHAN_S3_BUCKET, UCHAN_S3_REGION,
// UCHAN_S3_ENDPOINT.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setString("UCHAN_ADDR", &config.EndpointAddr)
	setString("UCHAN_DATABASE_DSN", &config.DatabaseDSN)
	setString("UCHAN_SECRET_KEY", &config.SecretKey)
	setString("UCHAN_MEDIA_BACKEND", &config.MediaBackend)
	setString("UCHAN_MEDIA_DIR", &config.MediaDir)
	setString("UCHAN_S3_USER", &config.S3RootUser)
	setString("UCHAN_S3_PASSWORD", &config.S3RootPassword)
	setString("UCHAN_S3_BUCKET", &config.S3Bucket)
	setString("UCHAN_S3_REGION", &config.S3Region)
	setString("UCHAN_S3_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := os.LookupEnv("UCHAN_MAX_UPLOAD_BYTES"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			config.MaxUploadBytes = n
		}
	}
}
