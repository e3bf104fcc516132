package model

import (
	"strings"
	"time"

	"GameCatalog/internal/errs"

	"gorm.io/gorm"
)

// 常用平台取值；platform 字段按不透明字符串存储，不限于这两个
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// Game 游戏目录记录
type Game struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	PublisherID string    `gorm:"column:publisher_id;type:varchar(128);comment:发行商ID" json:"publisherId"`
	Name        string    `gorm:"column:name;type:varchar(256);not null;index;comment:游戏名称" json:"name"`
	Platform    string    `gorm:"column:platform;type:varchar(32);not null;index;comment:平台：android/ios" json:"platform"`
	StoreID     string    `gorm:"column:store_id;type:varchar(128);comment:应用商店ID" json:"storeId"`
	BundleID    string    `gorm:"column:bundle_id;type:varchar(256);comment:包名" json:"bundleId"`
	AppVersion  string    `gorm:"column:app_version;type:varchar(64);comment:版本号" json:"appVersion"`
	IsPublished bool      `gorm:"column:is_published;type:boolean;default:false;comment:是否已发布" json:"isPublished"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间" json:"updatedAt"`
}

func (Game) TableName() string { return "games" }

// Validate name、platform 必填
func (g *Game) Validate() error {
	var missing []string
	if strings.TrimSpace(g.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(g.Platform) == "" {
		missing = append(missing, "platform")
	}
	if len(missing) > 0 {
		return errs.Validation("%s 不能为空", strings.Join(missing, ", "))
	}
	return nil
}

// BeforeSave 入库前校验（Create/Updates 均会触发），不合法的记录不会发出 SQL
func (g *Game) BeforeSave(tx *gorm.DB) error {
	return g.Validate()
}

// GameFields 客户端可写的字段集合。请求体绑定到该结构即完成清洗：
// id、createdAt 等未列出的字段会被丢弃
type GameFields struct {
	PublisherID string `json:"publisherId"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
	StoreID     string `json:"storeId"`
	BundleID    string `json:"bundleId"`
	AppVersion  string `json:"appVersion"`
	IsPublished bool   `json:"isPublished"`
}

// Apply 整体覆盖 g 的可写字段（不是局部 patch，未提供的字段按零值写入）
func (f GameFields) Apply(g *Game) {
	g.PublisherID = f.PublisherID
	g.Name = f.Name
	g.Platform = f.Platform
	g.StoreID = f.StoreID
	g.BundleID = f.BundleID
	g.AppVersion = f.AppVersion
	g.IsPublished = f.IsPublished
}

// NewGame 由可写字段构造一条待入库记录
func (f GameFields) NewGame() *Game {
	g := &Game{}
	f.Apply(g)
	return g
}

// Fields 取出 g 的可写字段
func (g *Game) Fields() GameFields {
	return GameFields{
		PublisherID: g.PublisherID,
		Name:        g.Name,
		Platform:    g.Platform,
		StoreID:     g.StoreID,
		BundleID:    g.BundleID,
		AppVersion:  g.AppVersion,
		IsPublished: g.IsPublished,
	}
}
