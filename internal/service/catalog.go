package service

import (
	"context"

	"GameCatalog/internal/interfaces"
	"GameCatalog/internal/model"

	"github.com/sirupsen/logrus"
)

// SearchCriteria 搜索条件，空字段不参与过滤
type SearchCriteria struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

// IsEmpty 两个条件都为空时搜索等价于 ListAll
func (c SearchCriteria) IsEmpty() bool {
	return c.Name == "" && c.Platform == ""
}

// CatalogService 游戏目录的增删改查与搜索。不缓存任何记录，每次调用直达仓储
type CatalogService struct {
	repo   interfaces.GameRepository
	logger *logrus.Logger
}

// NewCatalogService 创建 CatalogService
func NewCatalogService(repo interfaces.GameRepository, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger,
	}
}

func (s *CatalogService) ListAll(ctx context.Context) ([]*model.Game, error) {
	games, err := s.repo.FindAll(ctx, interfaces.GameFilter{})
	if err != nil {
		s.logger.WithError(err).Error("查询游戏列表失败")
		return nil, err
	}
	return games, nil
}

// Create 按清洗后的字段创建记录，返回带 id 的记录。name/platform 缺失时返回校验错误
func (s *CatalogService) Create(ctx context.Context, fields model.GameFields) (*model.Game, error) {
	game := fields.NewGame()
	if err := s.repo.Insert(ctx, game); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"name":     fields.Name,
			"platform": fields.Platform,
		}).Warn("创建游戏失败")
		return nil, err
	}
	return game, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id uint64) (*model.Game, error) {
	return s.repo.FindByID(ctx, id)
}

// Update 整体覆盖可写字段。记录不存在时直接返回 NotFound，不产生任何写入
func (s *CatalogService) Update(ctx context.Context, id uint64, fields model.GameFields) (*model.Game, error) {
	game, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields.Apply(game)
	if err := s.repo.Replace(ctx, game); err != nil {
		s.logger.WithError(err).WithField("game_id", id).Warn("更新游戏失败")
		return nil, err
	}
	return game, nil
}

// Delete 物理删除，返回被删除的 id
func (s *CatalogService) Delete(ctx context.Context, id uint64) (uint64, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return 0, err
	}
	if err := s.repo.Remove(ctx, id); err != nil {
		s.logger.WithError(err).WithField("game_id", id).Warn("删除游戏失败")
		return 0, err
	}
	return id, nil
}

// Search name、platform 精确匹配（AND）；条件全空时等价于 ListAll
func (s *CatalogService) Search(ctx context.Context, criteria SearchCriteria) ([]*model.Game, error) {
	if criteria.IsEmpty() {
		return s.ListAll(ctx)
	}
	games, err := s.repo.FindAll(ctx, interfaces.GameFilter{
		Name:     criteria.Name,
		Platform: criteria.Platform,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"name":     criteria.Name,
			"platform": criteria.Platform,
		}).Error("搜索游戏失败")
		return nil, err
	}
	return games, nil
}
