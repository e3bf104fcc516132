package api

import (
	"net/http"

	"GameCatalog/internal/config"
	"GameCatalog/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ImportHandler 批量导入接口
type ImportHandler struct {
	importService *service.ImportService
	cfg           *config.Config
	logger        *logrus.Logger
}

func NewImportHandler(importService *service.ImportService, cfg *config.Config, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		cfg:           cfg,
		logger:        logger,
	}
}

// PopulateGames 触发从各平台 top100 榜单导入
// @Summary 批量导入游戏
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/games/populate [post]
//
// 只确认任务已启动；逐条结果通过 GET /api/imports/:job_uuid 查询
func (h *ImportHandler) PopulateGames(c *gin.Context) {
	feedURLs := h.cfg.FeedURLs()
	if len(feedURLs) == 0 {
		badRequest(c, "no feeds configured")
		return
	}

	job, err := h.importService.Trigger(c.Request.Context(), feedURLs)
	if err != nil {
		respondError(c, h.logger, err, "PopulateGames")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "ok",
		"job_uuid": job.JobUUID,
		"status":   job.Status,
	})
}

// GetImportJob 查询导入任务 GET /api/imports/:job_uuid
func (h *ImportHandler) GetImportJob(c *gin.Context) {
	jobUUID := c.Param("job_uuid")
	if jobUUID == "" {
		badRequest(c, "job_uuid is required")
		return
	}
	job, err := h.importService.GetJob(c.Request.Context(), jobUUID)
	if err != nil {
		respondError(c, h.logger, err, "GetImportJob")
		return
	}
	c.JSON(http.StatusOK, job)
}
