package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JsonConfig is the on-disk shape of the node configuration. Absent keys
// keep the value from the previous layer, hence the pointer booleans.
type JsonConfig struct {
	ListenAddr       string `json:"listen_addr"`
	Backend          string `json:"backend"`
	SQLiteDSN        string `json:"sqlite_dsn"`
	PostgresDSN      string `json:"postgres_dsn"`
	BadgerDir        string `json:"badger_dir"`
	BadgerSyncWrites *bool  `json:"badger_sync_writes"`
	S3AccessKey      string `json:"s3_access_key"`
	S3SecretKey      string `json:"s3_secret_key"`
	S3Bucket         string `json:"s3_bucket"`
	S3Region         string `json:"s3_region"`
	S3BaseEndpoint   string `json:"s3_base_endpoint"`
	StartUnavailable *bool  `json:"start_unavailable"`
	LogLevel         string `json:"log_level"`
	LogFormat        string `json:"log_format"`
	OTelEndpoint     string `json:"otel_endpoint"`
}

// parseJSON overlays config with the file at path; an empty path loads
// nothing.
func parseJSON(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	for dst, v := range map[*string]string{
		&config.ListenAddr:     c.ListenAddr,
		&config.Backend:        c.Backend,
		&config.SQLiteDSN:      c.SQLiteDSN,
		&config.PostgresDSN:    c.PostgresDSN,
		&config.BadgerDir:      c.BadgerDir,
		&config.S3AccessKey:    c.S3AccessKey,
		&config.S3SecretKey:    c.S3SecretKey,
		&config.S3Bucket:       c.S3Bucket,
		&config.S3Region:       c.S3Region,
		&config.S3BaseEndpoint: c.S3BaseEndpoint,
		&config.LogLevel:       c.LogLevel,
		&config.LogFormat:      c.LogFormat,
		&config.OTelEndpoint:   c.OTelEndpoint,
	} {
		if v != "" {
			*dst = v
		}
	}
	if c.BadgerSyncWrites != nil {
		config.BadgerSyncWrites = *c.BadgerSyncWrites
	}
	if c.StartUnavailable != nil {
		config.StartUnavailable = *c.StartUnavailable
	}
	return nil
}
