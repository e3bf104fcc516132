package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"GameCatalog/internal/adapter"
	"GameCatalog/internal/config"
	"GameCatalog/internal/errs"
	"GameCatalog/internal/interfaces"
	"GameCatalog/internal/metrics"
	"GameCatalog/internal/model"
	"GameCatalog/internal/repository"
	"GameCatalog/internal/testutil"

	"gorm.io/gorm"
)

type importFixture struct {
	db      *gorm.DB
	catalog *CatalogService
	svc     *ImportService
	metrics *metrics.Recorder
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	db := testutil.DB(t)
	logger := testutil.Logger(t)
	catalog := NewCatalogService(repository.NewGameRepository(db), logger)
	rec := metrics.NewRecorder()
	cfg := &config.Config{Feeds: map[string]config.FeedConfig{
		"android": {Format: "top100", Timeout: 2},
		"ios":     {Format: "top100", Timeout: 2},
	}}
	svc := NewImportService(catalog, repository.NewImportJobRepository(db), adapter.NewRegistry(logger), cfg, rec, logger)
	return &importFixture{db: db, catalog: catalog, svc: svc, metrics: rec}
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPopulateSingleRecord(t *testing.T) {
	f := newImportFixture(t)
	android := feedServer(t, `[{"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"}]`)

	report := f.svc.Populate(context.Background(), map[string]string{"android": android.URL})
	if report.Succeeded != 1 || report.Failed != 0 || report.FeedFailures != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	games, err := f.catalog.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games", len(games))
	}
	want := model.GameFields{PublisherID: "p1", Name: "Game A", Platform: "android", StoreID: "p1", BundleID: "b1", AppVersion: "1.0", IsPublished: true}
	if games[0].Fields() != want {
		t.Fatalf("fields = %+v, want %+v", games[0].Fields(), want)
	}
	pr := report.Platform("android")
	if pr == nil || len(pr.Outcomes) != 1 || !pr.Outcomes[0].OK() || pr.Outcomes[0].Game.ID != games[0].ID {
		t.Fatalf("unexpected platform report: %+v", pr)
	}
}

func TestPopulatePartialFailure(t *testing.T) {
	f := newImportFixture(t)
	ios := feedServer(t, `[
		{"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"},
		{"publisher_id":"p2","bundle_id":"b2","version":"2.0"},
		{"publisher_id":"p3","humanized_name":"Game C","bundle_id":"b3","version":"3.0"}
	]`)

	report := f.svc.Populate(context.Background(), map[string]string{"ios": ios.URL})
	pr := report.Platform("ios")
	if pr.Succeeded != 2 || pr.Failed != 1 {
		t.Fatalf("succeeded=%d failed=%d", pr.Succeeded, pr.Failed)
	}
	if len(pr.Outcomes) != 3 {
		t.Fatalf("got %d outcomes", len(pr.Outcomes))
	}
	bad := pr.Outcomes[1]
	if bad.OK() || bad.ErrorKind != errs.KindValidation || bad.BundleID != "b2" {
		t.Fatalf("unexpected failed outcome: %+v", bad)
	}
	if !pr.Outcomes[0].OK() || !pr.Outcomes[2].OK() {
		t.Fatalf("siblings of the failed record should succeed: %+v", pr.Outcomes)
	}

	games, _ := f.catalog.Search(context.Background(), SearchCriteria{Platform: "ios"})
	if len(games) != 2 {
		t.Fatalf("got %d ios games", len(games))
	}
	if got := f.metrics.ImportRecords("ios", metrics.ResultFailure, string(errs.KindValidation)); got != 1 {
		t.Fatalf("failure metric = %v", got)
	}
	if got := f.metrics.ImportRecords("ios", metrics.ResultSuccess, ""); got != 2 {
		t.Fatalf("success metric = %v", got)
	}
}

func TestPopulateFeedFailureIsolated(t *testing.T) {
	f := newImportFixture(t)
	android := failingServer(t)
	ios := feedServer(t, `[
		{"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"},
		{"publisher_id":"p2","humanized_name":"Game B","bundle_id":"b2","version":"2.0"}
	]`)

	report := f.svc.Populate(context.Background(), map[string]string{"android": android.URL, "ios": ios.URL})
	if report.FeedFailures != 1 || report.Succeeded != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if pr := report.Platform("android"); pr.FetchError == "" || len(pr.Outcomes) != 0 {
		t.Fatalf("android should report a fetch error: %+v", pr)
	}
	if pr := report.Platform("ios"); pr.FetchError != "" || pr.Succeeded != 2 {
		t.Fatalf("ios should succeed: %+v", pr)
	}

	games, _ := f.catalog.ListAll(context.Background())
	if len(games) != 2 {
		t.Fatalf("got %d games", len(games))
	}
	for _, g := range games {
		if g.Platform != "ios" {
			t.Fatalf("unexpected platform %q", g.Platform)
		}
	}
	if got := f.metrics.FeedFetches("android", metrics.ResultFailure); got != 1 {
		t.Fatalf("android fetch failure metric = %v", got)
	}
}

func TestPopulateUnreachableFeed(t *testing.T) {
	f := newImportFixture(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	dead := srv.URL
	srv.Close()

	report := f.svc.Populate(context.Background(), map[string]string{"android": dead})
	if report.FeedFailures != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestPopulateTwiceDuplicates(t *testing.T) {
	f := newImportFixture(t)
	android := feedServer(t, `[{"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"}]`)
	feeds := map[string]string{"android": android.URL}

	f.svc.Populate(context.Background(), feeds)
	f.svc.Populate(context.Background(), feeds)

	games, _ := f.catalog.ListAll(context.Background())
	if len(games) != 2 {
		t.Fatalf("expected duplicate rows after re-import, got %d", len(games))
	}
	if games[0].ID == games[1].ID {
		t.Fatal("duplicate rows must have distinct ids")
	}
}

func TestPopulateNullRecord(t *testing.T) {
	f := newImportFixture(t)
	ios := feedServer(t, `[null, {"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"}]`)

	pr := f.svc.Populate(context.Background(), map[string]string{"ios": ios.URL}).Platform("ios")
	if pr.Succeeded != 1 || pr.Failed != 1 || pr.Outcomes[0].ErrorKind != errs.KindValidation {
		t.Fatalf("unexpected report: %+v", pr)
	}
}

func TestPopulateMalformedRecord(t *testing.T) {
	f := newImportFixture(t)
	ios := feedServer(t, `[
		{"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"},
		{"publisher_id":"p2","humanized_name":"Game B","bundle_id":"b2","version":2},
		{"publisher_id":"p3","humanized_name":"Game C","bundle_id":"b3","version":"3.0"}
	]`)

	report := f.svc.Populate(context.Background(), map[string]string{"ios": ios.URL})
	pr := report.Platform("ios")
	if pr.FetchError != "" || report.FeedFailures != 0 {
		t.Fatalf("a single bad record must not fail the feed: %+v", pr)
	}
	if pr.Succeeded != 2 || pr.Failed != 1 {
		t.Fatalf("succeeded=%d failed=%d", pr.Succeeded, pr.Failed)
	}
	bad := pr.Outcomes[1]
	if bad.OK() || bad.ErrorKind != errs.KindValidation || bad.BundleID != "b2" {
		t.Fatalf("unexpected failed outcome: %+v", bad)
	}

	games, _ := f.catalog.Search(context.Background(), SearchCriteria{Platform: "ios"})
	if len(games) != 2 || games[0].Name != "Game A" || games[1].Name != "Game C" {
		t.Fatalf("unexpected ios games: %+v", games)
	}
}

// android 榜单挂起期间，ios 的记录应已全部写入
func TestPopulateHungFeedBlocksOnlyItsPlatform(t *testing.T) {
	f := newImportFixture(t)
	logger := testutil.Logger(t)
	cfg := &config.Config{Feeds: map[string]config.FeedConfig{
		"android": {Format: "top100", Timeout: 30},
		"ios":     {Format: "top100", Timeout: 30},
	}}
	svc := NewImportService(f.catalog, repository.NewImportJobRepository(f.db), adapter.NewRegistry(logger), cfg, nil, logger)

	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	android := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(`[{"publisher_id":"p9","humanized_name":"Game Z","bundle_id":"b9","version":"9.0"}]`))
	}))
	t.Cleanup(android.Close)
	// 先于 android.Close 执行，避免测试失败时 Close 一直等待挂起的请求
	t.Cleanup(unblock)
	ios := feedServer(t, `[
		{"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"},
		{"publisher_id":"p2","humanized_name":"Game B","bundle_id":"b2","version":"2.0"}
	]`)

	done := make(chan *ImportReport, 1)
	go func() {
		done <- svc.Populate(context.Background(), map[string]string{"android": android.URL, "ios": ios.URL})
	}()

	deadline := time.Now().Add(10 * time.Second)
	for {
		games, err := f.catalog.Search(context.Background(), SearchCriteria{Platform: "ios"})
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(games) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("ios rows not written while android feed is hung (got %d)", len(games))
		}
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case <-done:
		t.Fatal("populate finished before the android feed responded")
	default:
	}
	if games, _ := f.catalog.Search(context.Background(), SearchCriteria{Platform: "android"}); len(games) != 0 {
		t.Fatalf("android rows written before release: %+v", games)
	}

	unblock()
	var report *ImportReport
	select {
	case report = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("populate did not finish after release")
	}
	if a := report.Platform("android"); a.FetchError != "" || a.Succeeded != 1 {
		t.Fatalf("unexpected android report: %+v", a)
	}
	if i := report.Platform("ios"); i.Succeeded != 2 || i.Failed != 0 {
		t.Fatalf("unexpected ios report: %+v", i)
	}
	if report.Succeeded != 3 {
		t.Fatalf("total succeeded = %d", report.Succeeded)
	}
}

// flakyRepo 第 n 次 Insert 返回存储错误
type flakyRepo struct {
	interfaces.GameRepository
	mu    sync.Mutex
	calls int
	failN int
}

func (r *flakyRepo) Insert(ctx context.Context, g *model.Game) error {
	r.mu.Lock()
	r.calls++
	n := r.calls
	r.mu.Unlock()
	if n == r.failN {
		return errs.Storage(errors.New("deadlock detected"), "保存游戏")
	}
	return r.GameRepository.Insert(ctx, g)
}

func TestPopulateStorageFailureContinues(t *testing.T) {
	f := newImportFixture(t)
	logger := testutil.Logger(t)
	repo := &flakyRepo{GameRepository: repository.NewGameRepository(f.db), failN: 1}
	catalog := NewCatalogService(repo, logger)
	svc := NewImportService(catalog, repository.NewImportJobRepository(f.db), adapter.NewRegistry(logger), nil, nil, logger)

	ios := feedServer(t, `[
		{"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"},
		{"publisher_id":"p2","humanized_name":"Game B","bundle_id":"b2","version":"2.0"}
	]`)
	pr := svc.Populate(context.Background(), map[string]string{"ios": ios.URL}).Platform("ios")
	if pr.Failed != 1 || pr.Succeeded != 1 || pr.Outcomes[0].ErrorKind != errs.KindStorage {
		t.Fatalf("unexpected report: %+v", pr)
	}
}

func TestTriggerRecordsJob(t *testing.T) {
	f := newImportFixture(t)
	android := feedServer(t, `[{"publisher_id":"p1","humanized_name":"Game A","bundle_id":"b1","version":"1.0"}]`)
	ios := feedServer(t, `[{"publisher_id":"p2","bundle_id":"b2","version":"2.0"}]`)

	done := make(chan *ImportReport, 1)
	f.svc.OnComplete = func(job *model.ImportJob, report *ImportReport) { done <- report }

	job, err := f.svc.Trigger(context.Background(), map[string]string{"android": android.URL, "ios": ios.URL})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if job.JobUUID == "" || job.Status != model.ImportStatusRunning {
		t.Fatalf("unexpected job: %+v", job)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("import did not finish")
	}
	f.svc.Wait()

	stored, err := f.svc.GetJob(context.Background(), job.JobUUID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != model.ImportStatusFinished || stored.Succeeded != 1 || stored.Failed != 1 || stored.FinishedAt == nil {
		t.Fatalf("unexpected stored job: %+v", stored)
	}
	var report ImportReport
	if err := json.Unmarshal(stored.Report, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Platforms) != 2 || report.Platform("ios").Failed != 1 {
		t.Fatalf("unexpected stored report: %+v", report)
	}
	var platforms []string
	if err := json.Unmarshal(stored.Platforms, &platforms); err != nil || len(platforms) != 2 {
		t.Fatalf("platforms = %s (%v)", stored.Platforms, err)
	}
}
