package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ImportStatusRunning  = "running"
	ImportStatusFinished = "finished"
)

// ImportJob 一次批量导入的状态记录。触发接口只返回 job_uuid，结果在这里查询
type ImportJob struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	JobUUID      string         `gorm:"column:job_uuid;type:varchar(64);uniqueIndex;not null;comment:任务全局唯一ID" json:"jobUuid"`
	Status       string         `gorm:"column:status;type:varchar(16);not null;comment:状态：running/finished" json:"status"`
	Platforms    datatypes.JSON `gorm:"column:platforms;type:jsonb;comment:本次导入的平台列表" json:"platforms"`
	Succeeded    int            `gorm:"column:succeeded;type:int;default:0;comment:成功条数" json:"succeeded"`
	Failed       int            `gorm:"column:failed;type:int;default:0;comment:失败条数" json:"failed"`
	FeedFailures int            `gorm:"column:feed_failures;type:int;default:0;comment:拉取失败的榜单数" json:"feedFailures"`
	Report       datatypes.JSON `gorm:"column:report;type:jsonb;comment:逐条导入结果" json:"report,omitempty"`
	StartedAt    time.Time      `gorm:"column:started_at;not null;comment:开始时间" json:"startedAt"`
	FinishedAt   *time.Time     `gorm:"column:finished_at;comment:结束时间" json:"finishedAt,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime;comment:创建时间" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime;comment:更新时间" json:"updatedAt"`
}

func (ImportJob) TableName() string { return "import_jobs" }
