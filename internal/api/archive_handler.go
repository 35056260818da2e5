package api

import (
	"errors"
	"net/http"
	"strconv"

	"OwaraiArchive/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ArchiveHandler 大会、回、个票的只读查询接口
type ArchiveHandler struct {
	archive *service.ArchiveService
	logger  *logrus.Logger
}

// NewArchiveHandler 创建 ArchiveHandler
func NewArchiveHandler(archive *service.ArchiveService, logger *logrus.Logger) *ArchiveHandler {
	return &ArchiveHandler{archive: archive, logger: logger}
}

// ListCompetitions 大会一览（显示顺）
// GET /api/competitions
func (h *ArchiveHandler) ListCompetitions(c *gin.Context) {
	list, err := h.archive.ListCompetitions(c.Request.Context())
	if err != nil {
		h.fail(c, "ListCompetitions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CompetitionYears 大会页：全部回及各自的成绩表
// GET /api/competitions/:comp
func (h *ArchiveHandler) CompetitionYears(c *gin.Context) {
	result, err := h.archive.CompetitionYears(c.Request.Context(), c.Param("comp"))
	if err != nil {
		h.fail(c, "CompetitionYears", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListEditionYears 有年份的回
// GET /api/competitions/:comp/years
func (h *ArchiveHandler) ListEditionYears(c *gin.Context) {
	years, err := h.archive.ListEditionYears(c.Request.Context(), c.Param("comp"))
	if err != nil {
		h.fail(c, "ListEditionYears", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

// EditionTable 某回成绩表
// GET /api/competitions/:comp/editions/:year
func (h *ArchiveHandler) EditionTable(c *gin.Context) {
	year, ok := intParam(c, "year")
	if !ok {
		return
	}
	result, err := h.archive.EditionTable(c.Request.Context(), c.Param("comp"), year)
	if err != nil {
		h.fail(c, "EditionTable", err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "edition not found"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// EditionJudges 某回审查员
// GET /api/competitions/:comp/editions/:year/judges
func (h *ArchiveHandler) EditionJudges(c *gin.Context) {
	year, ok := intParam(c, "year")
	if !ok {
		return
	}
	seats, err := h.archive.EditionJudges(c.Request.Context(), c.Param("comp"), year)
	if err != nil {
		h.fail(c, "EditionJudges", err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

// JudgeScores 个票表
// GET /api/competitions/:comp/editions/:year/scores/:round
func (h *ArchiveHandler) JudgeScores(c *gin.Context) {
	year, ok := intParam(c, "year")
	if !ok {
		return
	}
	round, ok := intParam(c, "round")
	if !ok {
		return
	}
	result, err := h.archive.JudgeScores(c.Request.Context(), c.Param("comp"), year, round)
	if err != nil {
		h.fail(c, "JudgeScores", err)
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "edition not found"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListComedians 代表条目一览
// GET /api/comedians
func (h *ArchiveHandler) ListComedians(c *gin.Context) {
	list, err := h.archive.ListCanonicalComedians(c.Request.Context())
	if err != nil {
		h.fail(c, "ListComedians", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ComedianHistory 艺人页（旧名义的成绩合并到代表条目）
// GET /api/comedians/:id
func (h *ArchiveHandler) ComedianHistory(c *gin.Context) {
	result, err := h.archive.ComedianHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "ComedianHistory", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UnitMembers GET /api/comedians/:id/members
func (h *ArchiveHandler) UnitMembers(c *gin.Context) {
	list, err := h.archive.UnitMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "UnitMembers", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PersonUnits GET /api/comedians/:id/units
func (h *ArchiveHandler) PersonUnits(c *gin.Context) {
	list, err := h.archive.PersonUnits(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "PersonUnits", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// SourceFiles 源 CSV 清单（sha256、行数、表头）
// GET /api/sources
func (h *ArchiveHandler) SourceFiles(c *gin.Context) {
	list, err := h.archive.SourceFiles(c.Request.Context())
	if err != nil {
		h.fail(c, "SourceFiles", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ArchiveHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrCompetitionNotFound),
		errors.Is(err, service.ErrEditionNotFound),
		errors.Is(err, service.ErrComedianNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error(op + " failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return n, true
}
