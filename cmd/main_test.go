package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keldra/resirel/internal/config"
	"github.com/keldra/resirel/pkg/logger"
	"github.com/keldra/resirel/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func TestFlagSet(t *testing.T) {
	convey.Convey("Given the CLI flag set", t, func() {
		fs := newFlagSet()

		convey.Convey("When parsing a full command line", func() {
			err := fs.Parse([]string{
				"--region=us",
				"--season=tww-season2",
				"--resi-key-level=21",
				"--workers=4",
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the merged config reflects the flags", func() {
				t.Setenv("RESIREL_CONFIG", "")

				cfg, err := config.Load(context.Background(), fs)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Region, convey.ShouldEqual, "us")
				convey.So(cfg.Season, convey.ShouldEqual, "tww-season2")
				convey.So(cfg.TargetLevel, convey.ShouldEqual, 21)
				convey.So(cfg.Workers, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When parsing nothing", func() {
			err := fs.Parse(nil)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then flag defaults match the config defaults", func() {
				t.Setenv("RESIREL_CONFIG", "")

				cfg, err := config.Load(context.Background(), fs)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When parsing an unknown flag", func() {
			err := fs.Parse([]string{"--bogus=1"})

			convey.Convey("Then parsing fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsServer(t *testing.T) {
	convey.Convey("Given an initialized logger", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)

		convey.Convey("When scraping the metrics handler", func() {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()
			metrics.Handler().ServeHTTP(rec, req)

			convey.Convey("Then the scrape succeeds", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When starting and stopping the metrics server", func() {
			srv := startMetricsServer(context.Background(), "127.0.0.1:0", logger.Get())

			convey.Convey("Then shutdown completes cleanly", func() {
				convey.So(func() { stopMetricsServer(srv, logger.Get()) }, convey.ShouldNotPanic)
			})
		})
	})
}
