package cli

import (
	"github.com/spf13/pflag"

	"github.com/hardng/arca/internal/config"
)

type flags struct {
	backup     bool
	restoreRef string

	host string
	port int
	user string
	pwd  string
	db   string
	uri  string

	sourceDir string
	dir       string

	retention int
	keepCount int

	s3             bool
	s3Alias        string
	s3Bucket       string
	s3Path         string
	s3Retention    int
	s3KeepCount    int
	s3CleanupLocal bool
	s3URL          string
	s3AK           string
	s3SK           string
	mcCmd          string
	s3SDK          bool

	configPath string
	schedule   string
	yes        bool
}

func newFlagSet(kind string) (*pflag.FlagSet, *flags) {
	f := &flags{}
	fs := pflag.NewFlagSet("arca "+kind, pflag.ContinueOnError)

	fs.BoolVar(&f.backup, "backup", false, "create a backup (the default action)")
	fs.StringVar(&f.restoreRef, "restore", "", "restore the given artifact (local path or remote object name)")

	switch kind {
	case config.KindMongo, config.KindRedis:
		fs.StringVar(&f.host, "host", "", "source host")
		fs.IntVar(&f.port, "port", 0, "source port")
		fs.StringVar(&f.user, "user", "", "source user")
		fs.StringVar(&f.pwd, "pwd", "", "source password")
		fs.StringVar(&f.db, "db", "", "database name")
		fs.StringVar(&f.uri, "uri", "", "connection URI, overrides host/port/user/pwd/db")
	default:
		fs.StringVar(&f.sourceDir, "source", "", "directory to archive")
	}

	fs.StringVar(&f.dir, "dir", "", "local backup directory")
	fs.IntVar(&f.retention, "retention", 0, "local retention in days, 0 keeps forever")
	fs.IntVar(&f.keepCount, "keep-count", 0, "local retention by count, 0 keeps all")

	fs.BoolVar(&f.s3, "s3", false, "upload to an S3-compatible object store")
	fs.StringVar(&f.s3Alias, "s3-alias", "", "client alias for the endpoint")
	fs.StringVar(&f.s3Bucket, "s3-bucket", "", "target bucket")
	fs.StringVar(&f.s3Path, "s3-path", "", "key prefix inside the bucket")
	fs.IntVar(&f.s3Retention, "s3-retention", 0, "remote retention in days")
	fs.IntVar(&f.s3KeepCount, "s3-keep-count", 0, "remote retention by count")
	fs.BoolVar(&f.s3CleanupLocal, "s3-cleanup-local", false, "remove the local copy after a successful upload")
	fs.StringVar(&f.s3URL, "s3-url", "", "endpoint URL")
	fs.StringVar(&f.s3AK, "s3-ak", "", "access key")
	fs.StringVar(&f.s3SK, "s3-sk", "", "secret key")
	fs.StringVar(&f.mcCmd, "mc-cmd", "", "object-store client binary (default mc)")
	fs.BoolVar(&f.s3SDK, "s3-sdk", false, "use the in-process S3 transport instead of the client binary")

	fs.StringVar(&f.configPath, "config", "", "YAML config file; flags override it")
	fs.StringVar(&f.schedule, "schedule", "", "cron spec; run as a daemon")
	fs.BoolVar(&f.yes, "yes", false, "skip the restore confirmation prompt")

	return fs, f
}

// applyFlags layers explicitly set flags over the loaded configuration,
// so precedence ends up flags > environment > file > defaults.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet, f *flags) {
	set := map[string]func(){
		"host":       func() { cfg.Source.Host = f.host },
		"port":       func() { cfg.Source.Port = f.port },
		"user":       func() { cfg.Source.User = f.user },
		"pwd":        func() { cfg.Source.Password = f.pwd },
		"db":         func() { cfg.Source.Database = f.db },
		"uri":        func() { cfg.Source.URI = f.uri },
		"source":     func() { cfg.Source.Dir = f.sourceDir },
		"dir":        func() { cfg.Backup.Dir = f.dir },
		"retention":  func() { cfg.Backup.Retention.MaxAgeDays = f.retention },
		"keep-count": func() { cfg.Backup.Retention.MaxCount = f.keepCount },

		"s3":               func() { cfg.S3.Enabled = f.s3 },
		"s3-alias":         func() { cfg.S3.Alias = f.s3Alias },
		"s3-bucket":        func() { cfg.S3.Bucket = f.s3Bucket },
		"s3-path":          func() { cfg.S3.Path = f.s3Path },
		"s3-retention":     func() { cfg.S3.Retention.MaxAgeDays = f.s3Retention },
		"s3-keep-count":    func() { cfg.S3.Retention.MaxCount = f.s3KeepCount },
		"s3-cleanup-local": func() { cfg.S3.CleanupLocal = f.s3CleanupLocal },
		"s3-url":           func() { cfg.S3.URL = f.s3URL },
		"s3-ak":            func() { cfg.S3.AccessKey = f.s3AK },
		"s3-sk":            func() { cfg.S3.SecretKey = f.s3SK },
		"mc-cmd":           func() { cfg.S3.MCCommand = f.mcCmd },
		"s3-sdk":           func() { cfg.S3.UseSDK = f.s3SDK },

		"schedule": func() { cfg.App.Schedule = f.schedule },
	}

	for name, apply := range set {
		if fs.Changed(name) {
			apply()
		}
	}
}
