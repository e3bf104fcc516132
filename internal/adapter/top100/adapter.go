package top100

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"GameCatalog/internal/config"
	"GameCatalog/internal/errs"
	"GameCatalog/internal/interfaces"
	"GameCatalog/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Format 榜单格式名
const Format = "top100"

type Adapter struct {
	platform   string
	cfg        *config.FeedConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewTop100Adapter 每个平台一个实例，榜单地址取自 cfg.URL
func NewTop100Adapter(platform string, cfg *config.FeedConfig, logger *logrus.Logger) interfaces.FeedAdapter {
	return &Adapter{
		platform:   platform,
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

func (a *Adapter) GetPlatform() string {
	return a.platform
}

// FetchGames 拉取榜单；网络错误、非 2xx、外层不是 JSON 数组都归为 FeedFetch 错误。
// 单条记录保持原始 JSON，格式问题只影响该条
func (a *Adapter) FetchGames(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.URL, nil)
	if err != nil {
		return nil, errs.FeedFetch(a.platform, fmt.Errorf("构造请求失败: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, errs.FeedFetch(a.platform, fmt.Errorf("请求榜单失败: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 读一小段响应体便于排查
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errs.FeedFetch(a.platform, fmt.Errorf("榜单返回状态码 %d: %s", resp.StatusCode, snippet))
	}

	var records []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, errs.FeedFetch(a.platform, fmt.Errorf("解析榜单失败: %w", err))
	}

	a.logger.WithFields(logrus.Fields{
		"platform": a.platform,
		"count":    len(records),
	}).Info("榜单拉取完成")
	return records, nil
}
