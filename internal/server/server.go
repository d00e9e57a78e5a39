package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/creatorgraph/internal/core"
	"github.com/agenthands/creatorgraph/internal/core/model"
)

type Server struct {
	Engine *core.Engine
	Logger *slog.Logger
}

func NewServer(engine *core.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Engine: engine, Logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.Health)
	r.POST("/profiles", s.IngestProfiles)
	r.POST("/search", s.Search)
	r.POST("/identities/resolve", s.ResolveIdentities)
	r.GET("/identities/clusters", s.ListClusters)
	r.POST("/identities/compare", s.Compare)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type IngestRequest struct {
	Profiles []model.ProfileRecord `json:"profiles"`
}

func (s *Server) IngestProfiles(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := s.Engine.IngestProfiles(c.Request.Context(), req.Profiles)
	if err != nil {
		s.fail(c, "Failed to ingest profiles", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

type SearchResponse struct {
	Results []model.RankedCandidate `json:"results"`
	TookMS  int64                   `json:"took_ms"`
}

func (s *Server) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	start := time.Now()
	results, err := s.Engine.Search(c.Request.Context(), req)
	if err != nil {
		s.fail(c, "Failed to search", err)
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Results: results,
		TookMS:  time.Since(start).Milliseconds(),
	})
}

func (s *Server) ResolveIdentities(c *gin.Context) {
	res, err := s.Engine.ResolveIdentities(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to resolve identities", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) ListClusters(c *gin.Context) {
	clusters, err := s.Engine.Clusters(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to list clusters", err)
		return
	}
	if clusters == nil {
		clusters = []model.IdentityCluster{}
	}

	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

type CompareRequest struct {
	Source model.ProfileRecord `json:"source"`
	Target model.ProfileRecord `json:"target"`
}

func (s *Server) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	c.JSON(http.StatusOK, s.Engine.Compare(req.Source, req.Target))
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidRecord):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrCollaboratorUnavailable), errors.Is(err, core.ErrNoEmbedder):
		status = http.StatusServiceUnavailable
	}

	s.Logger.ErrorContext(c.Request.Context(), msg, "error", err, "status", status)
	c.JSON(status, gin.H{"error": msg})
}
