package config

import "github.com/spf13/pflag"

// Flags binds node settings to a pflag.FlagSet.
//
// Supported flags:
//
//	-c, --config string          JSON config file
//	-a, --listen string          gRPC bind address (e.g. ":50061")
//	-b, --backend string         memory, sqlite, postgres, badger or s3
//	    --sqlite-dsn string      sqlite file
//	-d, --postgres-dsn string    PostgreSQL DSN
//	    --badger-dir string      badger data directory ("" keeps it in memory)
//	    --s3-bucket, --s3-region, --s3-endpoint, --s3-access-key, --s3-secret-key
//	    --start-unavailable      report NOT_SERVING until toggled
//	    --log-level, --log-format, --otel-endpoint
type Flags struct {
	fs         *pflag.FlagSet
	v          Config
	configFile string
}

func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	var d Config
	d.LoadDefaults()

	fs.StringVarP(&f.configFile, "config", "c", "", "path to a JSON config file")
	fs.StringVarP(&f.v.ListenAddr, "listen", "a", d.ListenAddr, "address and port to run the ledger on")
	fs.StringVarP(&f.v.Backend, "backend", "b", d.Backend, "storage backend: memory, sqlite, postgres, badger, s3")
	fs.StringVar(&f.v.SQLiteDSN, "sqlite-dsn", d.SQLiteDSN, "sqlite database file")
	fs.StringVarP(&f.v.PostgresDSN, "postgres-dsn", "d", d.PostgresDSN, "postgres DSN")
	fs.StringVar(&f.v.BadgerDir, "badger-dir", d.BadgerDir, "badger data directory")
	fs.BoolVar(&f.v.BadgerSyncWrites, "badger-sync", d.BadgerSyncWrites, "fsync badger writes")
	fs.StringVar(&f.v.S3Bucket, "s3-bucket", d.S3Bucket, "S3 bucket")
	fs.StringVar(&f.v.S3Region, "s3-region", d.S3Region, "S3 region")
	fs.StringVar(&f.v.S3BaseEndpoint, "s3-endpoint", d.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&f.v.S3AccessKey, "s3-access-key", d.S3AccessKey, "S3 access key")
	fs.StringVar(&f.v.S3SecretKey, "s3-secret-key", d.S3SecretKey, "S3 secret key")
	fs.BoolVar(&f.v.StartUnavailable, "start-unavailable", d.StartUnavailable, "start with the health status NOT_SERVING")
	fs.StringVar(&f.v.LogLevel, "log-level", d.LogLevel, "log level")
	fs.StringVar(&f.v.LogFormat, "log-format", d.LogFormat, "log format: text or json")
	fs.StringVar(&f.v.OTelEndpoint, "otel-endpoint", d.OTelEndpoint, "OTLP/HTTP endpoint for traces")
	return f
}

func (f *Flags) ConfigFile() string {
	if f == nil {
		return ""
	}
	return f.configFile
}

func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	set := func(name string, dst *string, v string) {
		if f.fs.Changed(name) {
			*dst = v
		}
	}
	set("listen", &cfg.ListenAddr, f.v.ListenAddr)
	set("backend", &cfg.Backend, f.v.Backend)
	set("sqlite-dsn", &cfg.SQLiteDSN, f.v.SQLiteDSN)
	set("postgres-dsn", &cfg.PostgresDSN, f.v.PostgresDSN)
	set("badger-dir", &cfg.BadgerDir, f.v.BadgerDir)
	set("s3-bucket", &cfg.S3Bucket, f.v.S3Bucket)
	set("s3-region", &cfg.S3Region, f.v.S3Region)
	set("s3-endpoint", &cfg.S3BaseEndpoint, f.v.S3BaseEndpoint)
	set("s3-access-key", &cfg.S3AccessKey, f.v.S3AccessKey)
	set("s3-secret-key", &cfg.S3SecretKey, f.v.S3SecretKey)
	set("log-level", &cfg.LogLevel, f.v.LogLevel)
	set("log-format", &cfg.LogFormat, f.v.LogFormat)
	set("otel-endpoint", &cfg.OTelEndpoint, f.v.OTelEndpoint)
	if f.fs.Changed("badger-sync") {
		cfg.BadgerSyncWrites = f.v.BadgerSyncWrites
	}
	if f.fs.Changed("start-unavailable") {
		cfg.StartUnavailable = f.v.StartUnavailable
	}
}
