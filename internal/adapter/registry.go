package adapter

import (
	"fmt"

	"GameCatalog/internal/adapter/top100"
	"GameCatalog/internal/config"
	"GameCatalog/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory 榜单适配器工厂函数签名
// 入参：平台名、榜单配置、日志实例
type Factory func(platform string, cfg *config.FeedConfig, logger *logrus.Logger) interfaces.FeedAdapter

// Registry 按榜单格式查找工厂函数，新增格式仅需 Register
type Registry struct {
	logger    *logrus.Logger
	factories map[string]Factory
}

// NewRegistry 默认注册 top100 格式
func NewRegistry(logger *logrus.Logger) *Registry {
	r := &Registry{
		logger:    logger,
		factories: make(map[string]Factory),
	}
	r.Register(top100.Format, top100.NewTop100Adapter)
	return r
}

// Register 注册（或覆盖）某个格式的工厂函数
func (r *Registry) Register(format string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("榜单格式%s的工厂函数不能为nil", format))
	}
	if _, exists := r.factories[format]; exists {
		r.logger.Warnf("榜单格式%s的适配器已注册，将覆盖原有实现", format)
	}
	r.factories[format] = factory
}

// Build 为平台创建适配器实例
func (r *Registry) Build(platform string, cfg config.FeedConfig) (interfaces.FeedAdapter, error) {
	format := cfg.Format
	if format == "" {
		format = top100.Format
	}
	factory, ok := r.factories[format]
	if !ok {
		return nil, fmt.Errorf("未支持的榜单格式: %s（平台 %s）", format, platform)
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("平台%s未配置榜单地址", platform)
	}
	adapterIns := factory(platform, &cfg, r.logger)
	if adapterIns == nil {
		return nil, fmt.Errorf("平台%s的工厂函数返回nil适配器实例", platform)
	}
	return adapterIns, nil
}
