package model

import (
	"encoding/json"

	"GameCatalog/internal/errs"
)

// FeedGame 外部 top100 榜单中的单条记录（蛇形命名，与内部 Game 结构不同）
type FeedGame struct {
	PublisherID   string `json:"publisher_id"`
	HumanizedName string `json:"humanized_name"`
	BundleID      string `json:"bundle_id"`
	Version       string `json:"version"`
}

// DecodeFeedGame 解析榜单中的单条原始记录。
// 字段类型不符时仍返回已解析出的部分（便于记录 bundle_id），同时返回校验错误；null 记录返回 nil 与校验错误
func DecodeFeedGame(raw json.RawMessage) (*FeedGame, error) {
	var g *FeedGame
	if err := json.Unmarshal(raw, &g); err != nil {
		return g, errs.Validation("榜单记录格式错误: %v", err)
	}
	if g == nil {
		return nil, errs.Validation("榜单记录为空")
	}
	return g, nil
}

// ToGameFields 榜单记录 → Game 可写字段，是两套结构之间唯一的转换点。
// storeId 沿用 publisher_id，导入的记录一律视为已发布
func (f *FeedGame) ToGameFields(platform string) GameFields {
	return GameFields{
		PublisherID: f.PublisherID,
		Name:        f.HumanizedName,
		Platform:    platform,
		StoreID:     f.PublisherID,
		BundleID:    f.BundleID,
		AppVersion:  f.Version,
		IsPublished: true,
	}
}
