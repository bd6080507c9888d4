package config

import (
	"flag"
	"os"
	"time"

	"github.com/sharenest/sharenest/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":6000")
//	-h string   public base URL for share links
//	-d string   PostgreSQL DSN
//	-s string   admin JWT HMAC secret key
//	-r int      file retention, days
//	-m int      default max downloads per file
//	-p int      read credential validity, minutes
//	-b string   storage backend ("s3" or "memory")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-h", "-d", "-s", "-r", "-m", "-p", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.BaseURL, "h", config.BaseURL, "public base URL for share links")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	retentionDays := fs.Int("r", int(config.FileRetention.Hours())/24, "file retention (in days)")
	fs.IntVar(&config.MaxDownloads, "m", config.MaxDownloads, "default max downloads per file")
	credentialMinutes := fs.Int("p", int(config.ReadCredentialTTL.Minutes()), "read credential validity (in minutes)")

	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend (s3 or memory)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.FileRetention = time.Duration(*retentionDays) * 24 * time.Hour
	config.ReadCredentialTTL = time.Duration(*credentialMinutes) * time.Minute
}
