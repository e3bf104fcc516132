package interfaces

import (
	"context"
	"encoding/json"

	"GameCatalog/internal/model"
)

// FeedAdapter 单个平台的榜单拉取接口
type FeedAdapter interface {
	GetPlatform() string // 平台名称（android/ios）
	// FetchGames 拉取榜单，只解析外层数组；单条记录由调用方用 model.DecodeFeedGame 逐条解析
	FetchGames(ctx context.Context) ([]json.RawMessage, error)
}

// GameFilter 查询条件，空字段不参与过滤
type GameFilter struct {
	Name     string
	Platform string
}

// IsEmpty 所有条件均为空
func (f GameFilter) IsEmpty() bool {
	return f.Name == "" && f.Platform == ""
}

// GameRepository 游戏记录持久化接口
type GameRepository interface {
	FindAll(ctx context.Context, filter GameFilter) ([]*model.Game, error)
	FindByID(ctx context.Context, id uint64) (*model.Game, error)
	Insert(ctx context.Context, game *model.Game) error  // 写入并回填 id
	Replace(ctx context.Context, game *model.Game) error // 按 id 整体覆盖，不存在返回 NotFound
	Remove(ctx context.Context, id uint64) error         // 物理删除，不存在返回 NotFound
}

// ImportJobRepository 批量导入任务状态持久化接口
type ImportJobRepository interface {
	Create(ctx context.Context, job *model.ImportJob) error
	Finish(ctx context.Context, job *model.ImportJob) error
	GetByUUID(ctx context.Context, jobUUID string) (*model.ImportJob, error)
}
