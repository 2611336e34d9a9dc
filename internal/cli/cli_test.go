package cli

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hardng/arca/internal/config"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunDispatch(t *testing.T) {
	Convey("Given the arca command line", t, func() {
		Convey("No arguments prints usage and fails", func() {
			code, _, stderr := runCLI()

			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, "Usage:")
		})

		Convey("version prints the version and the Go runtime", func() {
			code, stdout, _ := runCLI("version")

			So(code, ShouldEqual, 0)
			So(stdout, ShouldContainSubstring, "arca "+version)
			So(stdout, ShouldContainSubstring, "go1.")
		})

		Convey("help prints usage and succeeds", func() {
			code, stdout, _ := runCLI("help")

			So(code, ShouldEqual, 0)
			So(stdout, ShouldContainSubstring, "mongo | redis | nginx | nacos")
		})

		Convey("An unknown source fails with usage", func() {
			code, _, stderr := runCLI("mysql")

			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, `unknown source "mysql"`)
		})

		Convey("--help on a source exits cleanly", func() {
			code, _, stderr := runCLI("mongo", "--help")

			So(code, ShouldEqual, 0)
			So(stderr, ShouldContainSubstring, "--uri")
		})

		Convey("An unknown flag fails", func() {
			code, _, stderr := runCLI("mongo", "--frobnicate")

			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, "unknown flag")
		})

		Convey("--backup and --restore are mutually exclusive", func() {
			code, _, stderr := runCLI("mongo", "--backup", "--restore", "mongo_backup_20260820_033000.archive.gz")

			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, "mutually exclusive")
		})

		Convey("--schedule cannot be combined with --restore", func() {
			code, _, stderr := runCLI("mongo", "--restore", "x.gz", "--schedule", "0 0 3 * * *")

			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, "only applies to backups")
		})

		Convey("Invalid retention surfaces as a configuration error", func() {
			code, _, stderr := runCLI("mongo", "--dir", t.TempDir(), "--retention", "-1")

			So(code, ShouldEqual, 1)
			So(stderr, ShouldContainSubstring, "invalid configuration")
		})
	})
}

func TestFlagSetPerSource(t *testing.T) {
	Convey("Given the per-source flag sets", t, func() {
		Convey("Database sources expose connection flags", func() {
			fs, _ := newFlagSet(config.KindMongo)

			So(fs.Lookup("uri"), ShouldNotBeNil)
			So(fs.Lookup("host"), ShouldNotBeNil)
			So(fs.Lookup("source"), ShouldBeNil)
		})

		Convey("Directory sources expose --source instead", func() {
			fs, _ := newFlagSet(config.KindNginx)

			So(fs.Lookup("source"), ShouldNotBeNil)
			So(fs.Lookup("uri"), ShouldBeNil)
		})

		Convey("The S3 and scheduling flags are always present", func() {
			for _, kind := range []string{config.KindMongo, config.KindRedis, config.KindNginx, config.KindNacos} {
				fs, _ := newFlagSet(kind)

				So(fs.Lookup("s3-url"), ShouldNotBeNil)
				So(fs.Lookup("mc-cmd"), ShouldNotBeNil)
				So(fs.Lookup("schedule"), ShouldNotBeNil)
				So(fs.Lookup("yes"), ShouldNotBeNil)
			}
		})
	})
}

func TestApplyFlags(t *testing.T) {
	Convey("Given a loaded configuration", t, func() {
		Convey("Explicit flags override defaults, untouched ones do not", func() {
			fs, f := newFlagSet(config.KindMongo)
			err := fs.Parse([]string{
				"--host", "db1.internal",
				"--port", "27018",
				"--s3",
				"--s3-url", "minio.internal:9000",
				"--s3-bucket", "backups",
				"--keep-count", "5",
			})
			So(err, ShouldBeNil)

			cfg, err := config.Load(config.KindMongo, "")
			So(err, ShouldBeNil)

			applyFlags(cfg, fs, f)

			So(cfg.Source.Host, ShouldEqual, "db1.internal")
			So(cfg.Source.Port, ShouldEqual, 27018)
			So(cfg.S3.Enabled, ShouldBeTrue)
			So(cfg.S3.URL, ShouldEqual, "minio.internal:9000")
			So(cfg.S3.Bucket, ShouldEqual, "backups")
			So(cfg.Backup.Retention.MaxCount, ShouldEqual, 5)

			// untouched values keep their defaults
			So(cfg.S3.MCCommand, ShouldEqual, "mc")
			So(cfg.Backup.Retention.MaxAgeDays, ShouldEqual, 7)
			So(cfg.Backup.Dir, ShouldEqual, "/data/backup/mongo")
		})

		Convey("Flags beat environment variables", func() {
			t.Setenv("ARCA_S3_ACCESS_KEY", "env-ak")

			fs, f := newFlagSet(config.KindMongo)
			So(fs.Parse([]string{"--s3-ak", "flag-ak"}), ShouldBeNil)

			cfg, err := config.Load(config.KindMongo, "")
			So(err, ShouldBeNil)
			So(cfg.S3.AccessKey, ShouldEqual, "env-ak")

			applyFlags(cfg, fs, f)
			So(cfg.S3.AccessKey, ShouldEqual, "flag-ak")
		})

		Convey("The schedule flag lands in the app configuration", func() {
			fs, f := newFlagSet(config.KindRedis)
			So(fs.Parse([]string{"--schedule", "0 30 3 * * *"}), ShouldBeNil)

			cfg, err := config.Load(config.KindRedis, "")
			So(err, ShouldBeNil)

			applyFlags(cfg, fs, f)
			So(cfg.App.Schedule, ShouldEqual, "0 30 3 * * *")
		})
	})
}
