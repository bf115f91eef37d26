package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/okian/xptrack/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.Locale, convey.ShouldEqual, "en")
			convey.So(cfg.DefaultRangeDays, convey.ShouldEqual, 7)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the store is unknown", func() {
			cfg.Store = "redis"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When sqlite has no path", func() {
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = ""
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When sqlite has a path", func() {
			cfg.Store = config.StoreSQLite
			cfg.SQLitePath = "/tmp/x.db"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the locale is not a language tag", func() {
			cfg.Locale = "not a tag!"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the range is zero", func() {
			cfg.DefaultRangeDays = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
