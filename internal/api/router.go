package api

import (
	"OwaraiArchive/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NewRouter 注册全部只读路由。mode 为 gin 运行模式（debug/release/test）。
func NewRouter(archive *service.ArchiveService, logger *logrus.Logger, mode string) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Recovery(), Metrics())

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewArchiveHandler(archive, logger)
	g := r.Group("/api")
	{
		g.GET("/competitions", h.ListCompetitions)
		g.GET("/competitions/:comp", h.CompetitionYears)
		g.GET("/competitions/:comp/years", h.ListEditionYears)
		g.GET("/competitions/:comp/editions/:year", h.EditionTable)
		g.GET("/competitions/:comp/editions/:year/judges", h.EditionJudges)
		g.GET("/competitions/:comp/editions/:year/scores/:round", h.JudgeScores)

		g.GET("/comedians", h.ListComedians)
		g.GET("/comedians/:id", h.ComedianHistory)
		g.GET("/comedians/:id/members", h.UnitMembers)
		g.GET("/comedians/:id/units", h.PersonUnits)

		g.GET("/sources", h.SourceFiles)
	}
	return r
}
