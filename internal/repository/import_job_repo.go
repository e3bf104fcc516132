package repository

import (
	"context"
	"errors"

	"GameCatalog/internal/errs"
	"GameCatalog/internal/interfaces"
	"GameCatalog/internal/model"

	"gorm.io/gorm"
)

type importJobRepository struct {
	db *gorm.DB
}

// NewImportJobRepository 创建导入任务仓储
func NewImportJobRepository(db *gorm.DB) interfaces.ImportJobRepository {
	return &importJobRepository{db: db}
}

func (r *importJobRepository) Create(ctx context.Context, job *model.ImportJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return errs.Storage(err, "创建导入任务")
	}
	return nil
}

// Finish 写回统计与结果报告
func (r *importJobRepository) Finish(ctx context.Context, job *model.ImportJob) error {
	res := r.db.WithContext(ctx).Model(&model.ImportJob{}).
		Where("job_uuid = ?", job.JobUUID).
		Updates(map[string]interface{}{
			"status":        job.Status,
			"succeeded":     job.Succeeded,
			"failed":        job.Failed,
			"feed_failures": job.FeedFailures,
			"report":        job.Report,
			"finished_at":   job.FinishedAt,
		})
	if res.Error != nil {
		return errs.Storage(res.Error, "更新导入任务")
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("import job %s", job.JobUUID)
	}
	return nil
}

func (r *importJobRepository) GetByUUID(ctx context.Context, jobUUID string) (*model.ImportJob, error) {
	var job model.ImportJob
	if err := r.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("import job %s", jobUUID)
		}
		return nil, errs.Storage(err, "查询导入任务")
	}
	return &job, nil
}
