package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading a .env
// file first when one is present. A missing .env file is not an error.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.BaseURL, "APP_HOST")
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")
	setString(&cfg.PinSalt, "PIN_SALT")
	setString(&cfg.SecretKey, "SECRET_KEY")
	setString(&cfg.AdminPasswordHash, "ADMIN_PASSWORD_HASH")

	if v, ok := lookupInt("ADMIN_TOKEN_TTL_MIN"); ok {
		cfg.AdminTokenTTL = time.Duration(v) * time.Minute
	}
	if v, ok := lookupInt("FILE_EXPIRY_DAYS"); ok {
		cfg.FileRetention = time.Duration(v) * 24 * time.Hour
	}
	if v, ok := lookupInt("MAX_DOWNLOADS"); ok {
		cfg.MaxDownloads = v
	}
	if v, ok := lookupInt("PAR_EXPIRY_MIN"); ok {
		cfg.ReadCredentialTTL = time.Duration(v) * time.Minute
	}
	if v, ok := lookupInt64("LARGE_FILE_THRESHOLD_BYTES"); ok {
		cfg.MultipartThreshold = v
	}
	if v, ok := lookupInt64("MULTIPART_PART_SIZE_BYTES"); ok {
		cfg.PartSize = v
	}

	setString(&cfg.StorageBackend, "STORAGE_BACKEND")
	setString(&cfg.S3AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.S3SecretKey, "S3_SECRET_KEY")
	setString(&cfg.S3Bucket, "S3_BUCKET")
	setString(&cfg.S3Region, "S3_REGION")
	setString(&cfg.S3BaseEndpoint, "S3_ENDPOINT")

	if v, ok := lookupInt("SWEEP_BATCH_SIZE"); ok {
		cfg.SweepBatchSize = v
	}
	if v, ok := lookupInt("RECONCILE_MAX_OBJECTS"); ok {
		cfg.ReconcileMaxObjects = v
	}
	if v, ok := lookupInt("CLEANUP_WORKERS"); ok {
		cfg.CleanupWorkers = v
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupInt64(key string) (int64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
