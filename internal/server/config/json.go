package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

// JsonConfig is the JSON shape of Config. Interval fields use timex.Duration
// so both "90s" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	DatabaseDriver   string `json:"database_driver"`
	DatabaseDSN      string `json:"database_dsn"`
	SecretKey        string `json:"secret_key"`
	LogFormat        string `json:"log_format"`
	LogLevel         string `json:"log_level"`

	BlobDriver      string `json:"blob_driver"`
	S3RootUser      string `json:"s3_root_user"`
	S3RootPassword  string `json:"s3_root_password"`
	S3Bucket        string `json:"s3_bucket"`
	S3ArchiveBucket string `json:"s3_archive_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`

	InlineThreshold       int            `json:"inline_threshold"`
	MaxJobAttempts        int            `json:"max_job_attempts"`
	ModificationWindow    timex.Duration `json:"modification_window"`
	TruncationExtensions  []string       `json:"truncation_extensions"`
	TruncationOldMinBytes int            `json:"truncation_old_min_bytes"`
	TruncationNewMaxBytes int            `json:"truncation_new_max_bytes"`
	NonceLifetime         timex.Duration `json:"nonce_lifetime"`
	NonceGrace            timex.Duration `json:"nonce_grace"`
	ResetTokenLifetime    timex.Duration `json:"reset_token_lifetime"`
	SweepBatch            int            `json:"sweep_batch"`
	BackpackCacheTTL      timex.Duration `json:"backpack_cache_ttl"`
	SettingsCacheTTL      timex.Duration `json:"settings_cache_ttl"`
}

// parseJson overlays values from the JSON file named by -c / -config onto
// config. Keys missing from the file keep their current value. An unreadable
// or malformed file panics, as for bad flags.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	fromJson(c, config)
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:      c.EndpointAddrGRPC,
		DatabaseDriver:        c.DatabaseDriver,
		DatabaseDSN:           c.DatabaseDSN,
		SecretKey:             c.SecretKey,
		LogFormat:             c.LogFormat,
		LogLevel:              c.LogLevel,
		BlobDriver:            c.BlobDriver,
		S3RootUser:            c.S3RootUser,
		S3RootPassword:        c.S3RootPassword,
		S3Bucket:              c.S3Bucket,
		S3ArchiveBucket:       c.S3ArchiveBucket,
		S3Region:              c.S3Region,
		S3BaseEndpoint:        c.S3BaseEndpoint,
		InlineThreshold:       c.InlineThreshold,
		MaxJobAttempts:        c.MaxJobAttempts,
		ModificationWindow:    timex.Duration{Duration: c.ModificationWindow},
		TruncationExtensions:  c.TruncationExtensions,
		TruncationOldMinBytes: c.TruncationOldMinBytes,
		TruncationNewMaxBytes: c.TruncationNewMaxBytes,
		NonceLifetime:         timex.Duration{Duration: c.NonceLifetime},
		NonceGrace:            timex.Duration{Duration: c.NonceGrace},
		ResetTokenLifetime:    timex.Duration{Duration: c.ResetTokenLifetime},
		SweepBatch:            c.SweepBatch,
		BackpackCacheTTL:      timex.Duration{Duration: c.BackpackCacheTTL},
		SettingsCacheTTL:      timex.Duration{Duration: c.SettingsCacheTTL},
	}
}

func fromJson(j *JsonConfig, c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDriver = j.DatabaseDriver
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.LogFormat = j.LogFormat
	c.LogLevel = j.LogLevel
	c.BlobDriver = j.BlobDriver
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3ArchiveBucket = j.S3ArchiveBucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.InlineThreshold = j.InlineThreshold
	c.MaxJobAttempts = j.MaxJobAttempts
	c.ModificationWindow = j.ModificationWindow.Duration
	c.TruncationExtensions = j.TruncationExtensions
	c.TruncationOldMinBytes = j.TruncationOldMinBytes
	c.TruncationNewMaxBytes = j.TruncationNewMaxBytes
	c.NonceLifetime = j.NonceLifetime.Duration
	c.NonceGrace = j.NonceGrace.Duration
	c.ResetTokenLifetime = j.ResetTokenLifetime.Duration
	c.SweepBatch = j.SweepBatch
	c.BackpackCacheTTL = j.BackpackCacheTTL.Duration
	c.SettingsCacheTTL = j.SettingsCacheTTL.Duration
}
