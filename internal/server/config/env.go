package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file
// in the working directory is loaded first when present; a missing file is
// not an error. Unset variables leave the current value untouched.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("HTTP_ADDR", &config.HTTPAddr)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("SECRET_KEY", &config.SecretKey)
	setString("S3_USER", &config.S3User)
	setString("S3_PASSWORD", &config.S3Password)
	setString("S3_BUCKET", &config.S3Bucket)
	setString("S3_REGION", &config.S3Region)
	setString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	setInt("MAX_PHOTOS", &config.MaxPhotos)
	setInt("MAX_IMAGE_SIDE", &config.MaxImageSide)
	setInt("JPEG_QUALITY", &config.JPEGQuality)

	if v := os.Getenv("TOKEN_VALIDITY_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.TokenValidityDuration = time.Duration(n) * time.Minute
		}
	}
}
