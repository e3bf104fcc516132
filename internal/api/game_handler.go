package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"GameCatalog/internal/model"
	"GameCatalog/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GameHandler 游戏目录增删改查接口
type GameHandler struct {
	catalog *service.CatalogService
	logger  *logrus.Logger
}

// NewGameHandler 创建 GameHandler
func NewGameHandler(catalog *service.CatalogService, logger *logrus.Logger) *GameHandler {
	return &GameHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// ListGames 游戏列表 GET /api/games
func (h *GameHandler) ListGames(c *gin.Context) {
	games, err := h.catalog.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "ListGames")
		return
	}
	c.JSON(http.StatusOK, games)
}

// CreateGame 创建游戏 POST /api/games
// 请求体只取 GameFields 中的字段，其余（包括 id）丢弃
func (h *GameHandler) CreateGame(c *gin.Context) {
	var fields model.GameFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	game, err := h.catalog.Create(c.Request.Context(), fields)
	if err != nil {
		respondError(c, h.logger, err, "CreateGame")
		return
	}
	c.JSON(http.StatusOK, game)
}

// GetGame 游戏详情 GET /api/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	game, err := h.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "GetGame")
		return
	}
	c.JSON(http.StatusOK, game)
}

// UpdateGame 整体更新 PUT /api/games/:id
func (h *GameHandler) UpdateGame(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var fields model.GameFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	game, err := h.catalog.Update(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, h.logger, err, "UpdateGame")
		return
	}
	c.JSON(http.StatusOK, game)
}

// DeleteGame 删除 DELETE /api/games/:id，返回 {"id": id}
func (h *GameHandler) DeleteGame(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deleted, err := h.catalog.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "DeleteGame")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": deleted})
}

// SearchGames 搜索 POST /api/games/search {"name": "...", "platform": "..."}
// 条件全空时重定向到列表接口
func (h *GameHandler) SearchGames(c *gin.Context) {
	var criteria service.SearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if criteria.IsEmpty() {
		c.Redirect(http.StatusSeeOther, "/api/games")
		return
	}
	games, err := h.catalog.Search(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, h.logger, err, "SearchGames")
		return
	}
	c.JSON(http.StatusOK, games)
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
