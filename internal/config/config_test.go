package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hardng/arca/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given no config file", t, func() {
		Convey("When loading for the mongo kind", func() {
			cfg, err := Load(KindMongo, "")

			Convey("Then source defaults match the kind", func() {
				So(err, ShouldBeNil)
				So(cfg.Source.Kind, ShouldEqual, KindMongo)
				So(cfg.Source.Host, ShouldEqual, "localhost")
				So(cfg.Source.Port, ShouldEqual, 27017)
				So(cfg.Backup.Dir, ShouldEqual, "/data/backup/mongo")
				So(cfg.Backup.Retention.MaxAgeDays, ShouldEqual, 7)
				So(cfg.S3.MCCommand, ShouldEqual, "mc")
			})
		})

		Convey("When loading for the nginx kind", func() {
			cfg, err := Load(KindNginx, "")

			So(err, ShouldBeNil)
			So(cfg.Source.Dir, ShouldEqual, "/etc/nginx")
			So(cfg.Backup.Dir, ShouldEqual, "/data/backup/nginx")
		})

		Convey("When credentials come from the environment", func() {
			t.Setenv("ARCA_S3_ACCESS_KEY", "minioadmin")
			t.Setenv("ARCA_S3_SECRET_KEY", "hunter2")

			cfg, err := Load(KindRedis, "")

			So(err, ShouldBeNil)
			So(cfg.S3.AccessKey, ShouldEqual, "minioadmin")
			So(cfg.S3.SecretKey, ShouldEqual, "hunter2")
		})
	})

	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "arca.yaml")
		yaml := []byte(`
backup:
  dir: /srv/backups/mongo
  retention:
    max_age_days: 14
    max_count: 10
s3:
  enabled: true
  url: minio.internal:9000
  bucket: backups
  access_key: ak
  secret_key: sk
telegram:
  enabled: true
  bot_token: "123:abc"
  chat_id: 42
`)
		So(os.WriteFile(path, yaml, 0644), ShouldBeNil)

		Convey("When loading it", func() {
			cfg, err := Load(KindMongo, path)

			Convey("Then file values override the defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Backup.Dir, ShouldEqual, "/srv/backups/mongo")
				So(cfg.Backup.Retention.MaxCount, ShouldEqual, 10)
				So(cfg.S3.Enabled, ShouldBeTrue)
				So(cfg.S3.Bucket, ShouldEqual, "backups")
				So(cfg.Telegram.ChatID, ShouldEqual, 42)
				So(cfg.Validate(), ShouldBeNil)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := Load(KindMongo, filepath.Join(dir, "absent.yaml"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to read config")
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a loaded default config", t, func() {
		cfg, err := Load(KindMongo, "")
		So(err, ShouldBeNil)

		Convey("The defaults validate", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("S3 enabled without credentials is a config error", func() {
			cfg.S3.Enabled = true
			cfg.S3.URL = "minio.internal:9000"
			cfg.S3.Bucket = "backups"

			err := cfg.Validate()
			var cfgErr *domain.ConfigError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "access key")
		})

		Convey("S3 enabled without a url is a config error", func() {
			cfg.S3.Enabled = true
			cfg.S3.AccessKey = "ak"
			cfg.S3.SecretKey = "sk"
			cfg.S3.Bucket = "backups"
			cfg.S3.URL = ""

			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("cleanup_local without s3 is a config error", func() {
			cfg.S3.CleanupLocal = true
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("Negative retention values are rejected", func() {
			cfg.Backup.Retention.MaxAgeDays = -1
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("Unknown source kinds are rejected", func() {
			cfg.Source.Kind = "oracle"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("An enabled mirror needs a credentials file", func() {
			cfg.Mirrors = []MirrorConfig{{Type: "gdrive", Enabled: true}}
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("Telegram enabled without a token is a config error", func() {
			cfg.Telegram.Enabled = true
			cfg.Telegram.ChatID = 42
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}
