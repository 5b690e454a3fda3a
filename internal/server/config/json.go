package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/fixhost/fixhost/internal/flagx"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, non-zero fields are copied
// into the runtime Config.
type JsonConfig struct {
	HTTPAddr             string `json:"http_addr"`
	DatabaseDSN          string `json:"database_dsn"`
	SecretKey            string `json:"secret_key"`
	TokenValidityMinutes int    `json:"token_validity_minutes"`
	S3User               string `json:"s3_user"`
	S3Password           string `json:"s3_password"`
	S3Bucket             string `json:"s3_bucket"`
	S3Region             string `json:"s3_region"`
	S3BaseEndpoint       string `json:"s3_base_endpoint"`
	MaxPhotos            int    `json:"max_photos"`
	MaxImageSide         int    `json:"max_image_side"`
	JPEGQuality          int    `json:"jpeg_quality"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.HTTPAddr != "" {
		config.HTTPAddr = c.HTTPAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityMinutes > 0 {
		config.TokenValidityDuration = time.Duration(c.TokenValidityMinutes) * time.Minute
	}
	if c.S3User != "" {
		config.S3User = c.S3User
	}
	if c.S3Password != "" {
		config.S3Password = c.S3Password
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.MaxPhotos > 0 {
		config.MaxPhotos = c.MaxPhotos
	}
	if c.MaxImageSide > 0 {
		config.MaxImageSide = c.MaxImageSide
	}
	if c.JPEGQuality > 0 {
		config.JPEGQuality = c.JPEGQuality
	}
}
