package repository

import (
	"context"
	"errors"

	"GameCatalog/internal/errs"
	"GameCatalog/internal/interfaces"
	"GameCatalog/internal/model"

	"gorm.io/gorm"
)

type gameRepository struct {
	db *gorm.DB
}

// NewGameRepository 创建游戏仓储
func NewGameRepository(db *gorm.DB) interfaces.GameRepository {
	return &gameRepository{db: db}
}

// FindAll 按条件查询，结果按 id 升序（库不变时多次调用顺序一致）
func (r *gameRepository) FindAll(ctx context.Context, filter interfaces.GameFilter) ([]*model.Game, error) {
	db := r.db.WithContext(ctx).Model(&model.Game{})
	if filter.Name != "" {
		db = db.Where("name = ?", filter.Name)
	}
	if filter.Platform != "" {
		db = db.Where("platform = ?", filter.Platform)
	}

	games := []*model.Game{}
	if err := db.Order("id ASC").Find(&games).Error; err != nil {
		return nil, errs.Storage(err, "查询游戏列表")
	}
	return games, nil
}

func (r *gameRepository) FindByID(ctx context.Context, id uint64) (*model.Game, error) {
	var g model.Game
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("game %d", id)
		}
		return nil, errs.Storage(err, "查询游戏")
	}
	return &g, nil
}

func (r *gameRepository) Insert(ctx context.Context, game *model.Game) error {
	game.ID = 0
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		return errs.Storage(err, "保存游戏")
	}
	return nil
}

// Replace 覆盖全部可写字段（含零值），id、created_at 不变
func (r *gameRepository) Replace(ctx context.Context, game *model.Game) error {
	if game.ID == 0 {
		return errs.NotFound("game 0")
	}
	res := r.db.WithContext(ctx).Model(game).Select("*").Omit("id", "created_at").Updates(game)
	if res.Error != nil {
		return errs.Storage(res.Error, "更新游戏")
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("game %d", game.ID)
	}
	return nil
}

// Remove 物理删除（模型无 DeletedAt，不是软删除）
func (r *gameRepository) Remove(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Game{})
	if res.Error != nil {
		return errs.Storage(res.Error, "删除游戏")
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("game %d", id)
	}
	return nil
}
