package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"GameCatalog/internal/adapter"
	"GameCatalog/internal/config"
	"GameCatalog/internal/errs"
	"GameCatalog/internal/interfaces"
	"GameCatalog/internal/metrics"
	"GameCatalog/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// RecordOutcome 单条榜单记录的导入结果：成功带 Game，失败带错误类别与信息
type RecordOutcome struct {
	Index     int         `json:"index"`
	BundleID  string      `json:"bundleId,omitempty"`
	Game      *model.Game `json:"game,omitempty"`
	ErrorKind errs.Kind   `json:"errorKind,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// OK 是否导入成功
func (o RecordOutcome) OK() bool { return o.ErrorKind == "" }

// PlatformReport 单个平台的导入结果。FetchError 非空表示整份榜单拉取失败，Outcomes 为空
type PlatformReport struct {
	Platform   string          `json:"platform"`
	URL        string          `json:"url"`
	FetchError string          `json:"fetchError,omitempty"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Outcomes   []RecordOutcome `json:"outcomes"`
}

// ImportReport 一次批量导入的汇总结果
type ImportReport struct {
	Platforms    []*PlatformReport `json:"platforms"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	FeedFailures int               `json:"feedFailures"`
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   time.Time         `json:"finishedAt"`
}

// Platform 按平台名取报告
func (r *ImportReport) Platform(name string) *PlatformReport {
	for _, p := range r.Platforms {
		if p.Platform == name {
			return p
		}
	}
	return nil
}

// ImportService 从各平台 top100 榜单批量导入游戏。
// 平台之间并发执行、互不影响；单条记录失败只记录结果，不中断同一榜单的其余记录
type ImportService struct {
	catalog  *CatalogService
	jobs     interfaces.ImportJobRepository
	registry *adapter.Registry
	cfg      *config.Config
	metrics  *metrics.Recorder
	logger   *logrus.Logger

	wg sync.WaitGroup
	// OnComplete 后台导入结束后回调（可选）
	OnComplete func(job *model.ImportJob, report *ImportReport)
}

// NewImportService 创建 ImportService；recorder 可为 nil
func NewImportService(catalog *CatalogService, jobs interfaces.ImportJobRepository, registry *adapter.Registry,
	cfg *config.Config, recorder *metrics.Recorder, logger *logrus.Logger) *ImportService {
	return &ImportService{
		catalog:  catalog,
		jobs:     jobs,
		registry: registry,
		cfg:      cfg,
		metrics:  recorder,
		logger:   logger,
	}
}

// Populate 同步执行一次导入：每个平台一个任务并发拉取、逐条创建，全部结束后返回汇总。
// 重复执行会重复写入同样的记录（没有去重键）
func (s *ImportService) Populate(ctx context.Context, feedURLs map[string]string) *ImportReport {
	started := time.Now()
	platforms := make([]string, 0, len(feedURLs))
	for p := range feedURLs {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	reports := make([]*PlatformReport, len(platforms))
	var g errgroup.Group
	for i, platform := range platforms {
		g.Go(func() error {
			// 失败在平台内部消化，不返回 error，避免影响其他平台
			reports[i] = s.importPlatform(ctx, platform, feedURLs[platform])
			return nil
		})
	}
	_ = g.Wait()

	report := &ImportReport{
		Platforms:  reports,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	for _, pr := range reports {
		report.Succeeded += pr.Succeeded
		report.Failed += pr.Failed
		if pr.FetchError != "" {
			report.FeedFailures++
		}
	}
	s.metrics.RecordImportRun(report.FinishedAt.Sub(started))
	s.logger.WithFields(logrus.Fields{
		"platforms":     platforms,
		"succeeded":     report.Succeeded,
		"failed":        report.Failed,
		"feed_failures": report.FeedFailures,
		"elapsed":       report.FinishedAt.Sub(started).String(),
	}).Info("批量导入完成")
	return report
}

func (s *ImportService) importPlatform(ctx context.Context, platform, url string) *PlatformReport {
	pr := &PlatformReport{Platform: platform, URL: url, Outcomes: []RecordOutcome{}}
	log := s.logger.WithField("platform", platform)

	records, err := s.fetch(ctx, platform, url)
	s.metrics.RecordFeedFetch(platform, err)
	if err != nil {
		log.WithError(err).Error("榜单拉取失败，跳过该平台")
		pr.FetchError = err.Error()
		return pr
	}
	if len(records) == 0 {
		log.Warn("榜单为空")
		return pr
	}

	// 逐条解析、创建，每条等待完成后再记录结果；解析失败只算该条失败
	for i, raw := range records {
		outcome := RecordOutcome{Index: i}
		var game *model.Game
		fg, err := model.DecodeFeedGame(raw)
		if fg != nil {
			outcome.BundleID = fg.BundleID
		}
		if err == nil {
			game, err = s.catalog.Create(ctx, fg.ToGameFields(platform))
		}

		if err != nil {
			outcome.ErrorKind = errs.KindOf(err)
			outcome.Error = err.Error()
			pr.Failed++
			log.WithError(err).WithFields(logrus.Fields{
				"index":     i,
				"bundle_id": outcome.BundleID,
			}).Warn("导入单条记录失败，继续处理后续记录")
		} else {
			outcome.Game = game
			pr.Succeeded++
		}
		s.metrics.RecordImportRecord(platform, string(outcome.ErrorKind))
		pr.Outcomes = append(pr.Outcomes, outcome)
	}

	log.WithFields(logrus.Fields{
		"succeeded": pr.Succeeded,
		"failed":    pr.Failed,
	}).Info("平台导入完成")
	return pr
}

func (s *ImportService) fetch(ctx context.Context, platform, url string) ([]json.RawMessage, error) {
	feedCfg := s.feedConfig(platform)
	feedCfg.URL = url
	feedAdapter, err := s.registry.Build(platform, feedCfg)
	if err != nil {
		return nil, errs.FeedFetch(platform, err)
	}
	return feedAdapter.FetchGames(ctx)
}

func (s *ImportService) feedConfig(platform string) config.FeedConfig {
	if s.cfg == nil {
		return config.FeedConfig{}
	}
	return s.cfg.Feed(platform)
}

// Trigger 创建导入任务并在后台执行，立即返回任务记录（status=running）。
// 导入结果只写入任务记录、日志和指标，不经过触发请求的响应
func (s *ImportService) Trigger(ctx context.Context, feedURLs map[string]string) (*model.ImportJob, error) {
	platforms := make([]string, 0, len(feedURLs))
	for p := range feedURLs {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	platformsJSON, err := json.Marshal(platforms)
	if err != nil {
		return nil, err
	}

	job := &model.ImportJob{
		JobUUID:   uuid.NewString(),
		Status:    model.ImportStatusRunning,
		Platforms: datatypes.JSON(platformsJSON),
		StartedAt: time.Now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.WithError(err).Error("创建导入任务失败")
		return nil, err
	}

	// 后台任务复制一份，避免与调用方序列化 job 时并发读写
	bg := *job
	urls := make(map[string]string, len(feedURLs))
	for k, v := range feedURLs {
		urls[k] = v
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// 不继承请求 ctx：请求结束后导入仍需继续
		report := s.Populate(context.Background(), urls)
		s.finish(&bg, report)
	}()

	s.logger.WithFields(logrus.Fields{
		"job_uuid":  job.JobUUID,
		"platforms": platforms,
	}).Info("批量导入任务已启动")
	return job, nil
}

func (s *ImportService) finish(job *model.ImportJob, report *ImportReport) {
	log := s.logger.WithField("job_uuid", job.JobUUID)
	raw, err := json.Marshal(report)
	if err != nil {
		log.WithError(err).Warn("序列化导入结果失败")
		raw = []byte("{}")
	}
	finishedAt := report.FinishedAt
	job.Status = model.ImportStatusFinished
	job.Succeeded = report.Succeeded
	job.Failed = report.Failed
	job.FeedFailures = report.FeedFailures
	job.Report = datatypes.JSON(raw)
	job.FinishedAt = &finishedAt

	if err := s.jobs.Finish(context.Background(), job); err != nil {
		log.WithError(err).Error("写回导入任务结果失败")
	}
	if s.OnComplete != nil {
		s.OnComplete(job, report)
	}
}

// GetJob 查询导入任务
func (s *ImportService) GetJob(ctx context.Context, jobUUID string) (*model.ImportJob, error) {
	return s.jobs.GetByUUID(ctx, jobUUID)
}

// Wait 等待所有后台导入结束（退出前、测试中使用）
func (s *ImportService) Wait() {
	s.wg.Wait()
}
