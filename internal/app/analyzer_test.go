package app_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/keldra/resirel/internal/adapters/export"
	"github.com/keldra/resirel/internal/adapters/repository"
	"github.com/keldra/resirel/internal/app"
	"github.com/keldra/resirel/internal/seed"
	"github.com/keldra/resirel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

var (
	testDungeons = []string{"Ara-Kara, City of Echoes", "The Dawnbreaker"}
	testShort    = map[string]string{
		"Ara-Kara, City of Echoes": "ARAK",
		"The Dawnbreaker":          "DAWN",
	}
)

// openSeason writes a handcrafted season and opens it in memory.
//
// mentor clears both dungeons at 21 early and is the only character that ever
// reaches full resilience. pupil later clears The Dawnbreaker at exactly 20
// with mentor in the roster, which should produce one non-resilient edge
// mentor -> pupil. The a* fillers only ever see one dungeon.
func openSeason(t *testing.T) repository.Repository {
	t.Helper()

	runs := []seed.Run{
		{
			ID: "r1", Dungeon: "The Dawnbreaker", Level: 21,
			CompletedAt: "2025-09-01T18:00:00.000Z",
			Roster:      []string{"mentor", "a1", "a2", "a3", "a4"},
		},
		{
			ID: "r2", Dungeon: "Ara-Kara, City of Echoes", Level: 21,
			CompletedAt: "2025-09-02T18:00:00.000Z",
			Roster:      []string{"mentor", "b1", "b2", "b3", "b4"},
		},
		{
			ID: "r3", Dungeon: "The Dawnbreaker", Level: 20,
			CompletedAt: "2025-09-10T18:00:00.000Z",
			Roster:      []string{"pupil", "mentor", "a1", "a2", "a3"},
		},
	}

	path := filepath.Join(t.TempDir(), "season.db")
	if err := seed.Write(context.Background(), path, runs); err != nil {
		t.Fatalf("seed season: %v", err)
	}
	repo, err := repository.NewMemoryRepository(context.Background(), path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newAnalyzer(t *testing.T, repo repository.Repository, opts ...app.Option) (*app.Analyzer, string) {
	t.Helper()

	outDir := t.TempDir()
	base := []app.Option{
		app.WithTargetLevel(20),
		app.WithMaxLevel(21),
		app.WithOutputPrefix(func(level int) string {
			return filepath.Join(outDir, "season-resi"+strconv.Itoa(level))
		}),
	}
	return app.New(repo, testDungeons, testShort, append(base, opts...)...), outDir
}

func TestAnalyzerRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given an analyzer over the handcrafted season", t, func() {
		repo := openSeason(t)
		analyzer, _ := newAnalyzer(t, repo)

		Convey("When running the sweep", func() {
			reports, err := analyzer.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then one report per level comes back", func() {
				So(len(reports), ShouldEqual, 2)
				So(reports[0].Level, ShouldEqual, 20)
				So(reports[1].Level, ShouldEqual, 21)
			})

			Convey("Then level 20 finds mentor resilient and one edge onto pupil", func() {
				So(reports[0].Resilient, ShouldEqual, 1)
				So(reports[0].ResilientEdges, ShouldEqual, 0)
				So(reports[0].NonResilientEdges, ShouldEqual, 1)
				So(len(reports[0].Files), ShouldEqual, 3)
			})

			Convey("Then level 21 finds mentor resilient but no edges", func() {
				So(reports[1].Resilient, ShouldEqual, 1)
				So(reports[1].ResilientEdges, ShouldEqual, 0)
				So(reports[1].NonResilientEdges, ShouldEqual, 0)
				So(len(reports[1].Files), ShouldEqual, 3)
			})

			Convey("Then the level 20 files carry the expected content", func() {
				var timestamps map[string]string
				readJSON(t, reports[0].Files[0], &timestamps)
				So(timestamps, ShouldResemble, map[string]string{"mentor": "2025-09-02"})

				var down []export.EdgeGroup
				readJSON(t, reports[0].Files[1], &down)
				So(down, ShouldBeEmpty)

				var nonResil []export.EdgeGroup
				readJSON(t, reports[0].Files[2], &nonResil)
				So(nonResil, ShouldResemble, []export.EdgeGroup{
					{Source: "mentor", Target: "pupil", Labels: []string{"DAWN#r3"}},
				})
			})
		})
	})
}

func TestAnalyzerWorkerInvariance(t *testing.T) {
	ctx := context.Background()

	Convey("Given sequential and parallel analyzers over the same season", t, func() {
		repo := openSeason(t)
		sequential, _ := newAnalyzer(t, repo)
		parallel, _ := newAnalyzer(t, repo, app.WithWorkers(4))

		Convey("Then their reports agree", func() {
			seqReports, err := sequential.Run(ctx)
			So(err, ShouldBeNil)
			parReports, err := parallel.Run(ctx)
			So(err, ShouldBeNil)

			So(len(parReports), ShouldEqual, len(seqReports))
			for i := range seqReports {
				So(parReports[i].Resilient, ShouldEqual, seqReports[i].Resilient)
				So(parReports[i].ResilientEdges, ShouldEqual, seqReports[i].ResilientEdges)
				So(parReports[i].NonResilientEdges, ShouldEqual, seqReports[i].NonResilientEdges)
			}
		})
	})
}

func TestAnalyzerSkipsEmptyLevels(t *testing.T) {
	ctx := context.Background()

	Convey("Given a target level nobody ever reaches", t, func() {
		repo := openSeason(t)
		outDir := t.TempDir()
		analyzer := app.New(repo, testDungeons, testShort,
			app.WithTargetLevel(24),
			app.WithMaxLevel(24),
			app.WithOutputPrefix(func(level int) string {
				return filepath.Join(outDir, "season-resi"+strconv.Itoa(level))
			}),
		)

		Convey("When running the sweep", func() {
			reports, err := analyzer.Run(ctx)
			So(err, ShouldBeNil)

			Convey("Then the level is reported skipped and no files are written", func() {
				So(len(reports), ShouldEqual, 1)
				So(reports[0].Resilient, ShouldEqual, 0)
				So(reports[0].Files, ShouldBeEmpty)

				entries, err := os.ReadDir(outDir)
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestAnalyzerCancellation(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		repo := openSeason(t)
		analyzer, _ := newAnalyzer(t, repo)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then the sweep aborts with the context error", func() {
			_, err := analyzer.Run(ctx)
			So(err, ShouldEqual, context.Canceled)
		})
	})
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}
