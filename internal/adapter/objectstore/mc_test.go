package objectstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hardng/arca/internal/config"
	"github.com/hardng/arca/internal/domain"
	"github.com/hardng/arca/internal/infrastructure/command"
	. "github.com/smartystreets/goconvey/convey"
)

const fakeMC = `#!/bin/sh
echo "$@" >> "$FAKE_TOOL_LOG"
shift 2
case "$1" in
  ls) cat "$FAKE_MC_LS" ;;
  *) exit 0 ;;
esac
`

func installFakeTool(t *testing.T, name, script string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0755); err != nil {
		t.Fatalf("write fake %s: %v", name, err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func loggedArgs(t *testing.T) func() string {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "argv.log")
	t.Setenv("FAKE_TOOL_LOG", logPath)
	return func() string {
		data, _ := os.ReadFile(logPath)
		return string(data)
	}
}

func testEndpoint() Endpoint {
	return NewEndpoint(config.S3Config{
		URL:       "minio.internal:9000",
		Alias:     "minio",
		Bucket:    "backups",
		Path:      "prod",
		AccessKey: "ak",
		SecretKey: "sk",
	})
}

func TestMCConfigure(t *testing.T) {
	Convey("Given a backup directory", t, func() {
		backupDir := t.TempDir()

		Convey("When the endpoint misses credentials", func() {
			store := NewMC(Endpoint{BaseURL: "http://minio:9000"}, "mongo", "mc", backupDir, command.NewResolver())

			err := store.Configure(context.Background())
			var cfgErr *domain.ConfigError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
		})

		Convey("When the endpoint misses the url", func() {
			store := NewMC(Endpoint{AccessKey: "ak", SecretKey: "sk"}, "mongo", "mc", backupDir, command.NewResolver())

			err := store.Configure(context.Background())
			var cfgErr *domain.ConfigError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
		})

		Convey("When neither the client binary nor docker exist", func() {
			t.Setenv("PATH", t.TempDir())
			store := NewMC(testEndpoint(), "mongo", "mc", backupDir, command.NewResolver())

			So(errors.Is(store.Configure(context.Background()), domain.ErrToolNotFound), ShouldBeTrue)
		})

		Convey("When the client binary is available", func() {
			installFakeTool(t, "mc", fakeMC)
			store := NewMC(testEndpoint(), "mongo", "mc", backupDir, command.NewResolver())

			So(store.Configure(context.Background()), ShouldBeNil)

			Convey("Then the persistent config dir lives inside the backup dir", func() {
				info, err := os.Stat(filepath.Join(backupDir, ".mc"))
				So(err, ShouldBeNil)
				So(info.IsDir(), ShouldBeTrue)
			})

			Convey("And configuring again is harmless", func() {
				So(store.Configure(context.Background()), ShouldBeNil)
			})
		})

		Convey("When a custom binary name is requested", func() {
			installFakeTool(t, "minio-client", fakeMC)
			t.Setenv("PATH", strings.Split(os.Getenv("PATH"), string(os.PathListSeparator))[0])
			store := NewMC(testEndpoint(), "mongo", "minio-client", backupDir, command.NewResolver())

			So(store.Configure(context.Background()), ShouldBeNil)
		})
	})
}

func TestMCUpload(t *testing.T) {
	Convey("Given a configured mc store", t, func() {
		argv := loggedArgs(t)
		installFakeTool(t, "mc", fakeMC)

		backupDir := t.TempDir()
		local := filepath.Join(backupDir, "mongo_backup_20260101_000000.archive.gz")
		So(os.WriteFile(local, []byte("artifact"), 0644), ShouldBeNil)

		store := NewMC(testEndpoint(), "mongo", "mc", backupDir, command.NewResolver())
		So(store.Configure(context.Background()), ShouldBeNil)

		Convey("When uploading twice", func() {
			So(store.Upload(context.Background(), local, filepath.Base(local)), ShouldBeNil)
			So(store.Upload(context.Background(), local, filepath.Base(local)), ShouldBeNil)

			Convey("Then the alias is registered exactly once", func() {
				So(strings.Count(argv(), "alias set minio http://minio.internal:9000 ak sk"), ShouldEqual, 1)
			})

			Convey("Then the copy targets alias/bucket/prefix/name", func() {
				So(argv(), ShouldContainSubstring,
					"cp "+local+" minio/backups/prod/mongo_backup_20260101_000000.archive.gz")
			})
		})

		Convey("When the client fails", func() {
			installFakeTool(t, "mc", `#!/bin/sh
echo "Unable to connect" >&2
exit 1
`)
			store := NewMC(testEndpoint(), "mongo", "mc", backupDir, command.NewResolver())
			So(store.Configure(context.Background()), ShouldBeNil)

			err := store.Upload(context.Background(), local, filepath.Base(local))

			Convey("Then the failure is a non-fatal upload error", func() {
				var upErr *domain.UploadError
				So(errors.As(err, &upErr), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Unable to connect")
			})
		})
	})
}

func TestMCList(t *testing.T) {
	Convey("Given a store whose listing mixes artifacts and noise", t, func() {
		loggedArgs(t)
		installFakeTool(t, "mc", fakeMC)

		lsFixture := filepath.Join(t.TempDir(), "ls.json")
		So(os.WriteFile(lsFixture, []byte(`{"status":"success","type":"file","lastModified":"2026-08-20T10:00:00.000+07:00","size":2048,"key":"mongo_backup_20260820_030000.archive.gz"}
{"status":"success","type":"file","lastModified":"2026-08-21T10:00:00.000+07:00","size":4096,"key":"mongo_backup_20260821_030000.archive.gz"}
{"status":"success","type":"file","lastModified":"2026-08-21T10:00:00.000+07:00","size":512,"key":"redis_backup_20260821_030000.rdb.gz"}
{"status":"success","type":"folder","size":0,"key":"nested/"}
{"status":"success","type":"file","size":1,"key":"notes.txt"}
not json at all
`), 0644), ShouldBeNil)
		t.Setenv("FAKE_MC_LS", lsFixture)

		store := NewMC(testEndpoint(), "mongo", "mc", t.TempDir(), command.NewResolver())
		So(store.Configure(context.Background()), ShouldBeNil)

		Convey("When listing", func() {
			objects, err := store.List(context.Background())

			Convey("Then only convention-matching mongo artifacts survive", func() {
				So(err, ShouldBeNil)
				So(len(objects), ShouldEqual, 2)
				So(objects[0].Name, ShouldEqual, "mongo_backup_20260820_030000.archive.gz")
				So(objects[0].Size, ShouldEqual, 2048)
				So(objects[0].LastModified.UTC().Hour(), ShouldEqual, 3)
				So(objects[1].Name, ShouldEqual, "mongo_backup_20260821_030000.archive.gz")
			})
		})
	})
}

func TestMCRetentionCommands(t *testing.T) {
	Convey("Given a configured mc store", t, func() {
		argv := loggedArgs(t)
		installFakeTool(t, "mc", fakeMC)

		store := NewMC(testEndpoint(), "mongo", "mc", t.TempDir(), command.NewResolver())
		So(store.Configure(context.Background()), ShouldBeNil)

		Convey("Remove targets one object", func() {
			So(store.Remove(context.Background(), "mongo_backup_20260101_000000.archive.gz"), ShouldBeNil)
			So(argv(), ShouldContainSubstring, "rm minio/backups/prod/mongo_backup_20260101_000000.archive.gz")
		})

		Convey("RemoveOlderThan delegates the sweep to the client", func() {
			So(store.RemoveOlderThan(context.Background(), 30), ShouldBeNil)
			So(argv(), ShouldContainSubstring, "rm --recursive --force --older-than 30d minio/backups/prod/")
		})

		Convey("Download copies from the remote target", func() {
			dest := filepath.Join(t.TempDir(), "restored.archive.gz")
			So(store.Download(context.Background(), "mongo_backup_20260101_000000.archive.gz", dest), ShouldBeNil)
			So(argv(), ShouldContainSubstring,
				"cp minio/backups/prod/mongo_backup_20260101_000000.archive.gz "+dest)
		})

		Convey("Location renders the remote target", func() {
			So(store.Location("a.gz"), ShouldEqual, "minio/backups/prod/a.gz")
		})
	})
}
