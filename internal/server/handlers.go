package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/service"
	"github.com/ifuryst/postpilot/internal/store"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

type profileRequest struct {
	ProfileURL string `json:"profileUrl"`
	Name       string `json:"name"`
}

type batchCheckRequest struct {
	ProfileURLs []string `json:"profileUrls"`
}

// respondError maps typed errors to HTTP statuses.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperror.CodeOf(err) {
	case apperror.CodeNotFound:
		status = http.StatusNotFound
	case apperror.CodeValidation:
		status = http.StatusBadRequest
	case apperror.CodeInvalidTransition, apperror.CodeConflict:
		status = http.StatusConflict
	case apperror.CodeRateLimited:
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		s.Logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error", "code": apperror.CodeInternal})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": apperror.CodeOf(err)})
}

func (s *Server) bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.respondError(c, apperror.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) handleListPosts(c *gin.Context) {
	filter := store.PostFilter{Status: models.PostStatus(c.Query("status"))}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			s.respondError(c, apperror.Validation("limit must be a non-negative integer"))
			return
		}
		filter.Limit = n
	}

	posts, err := s.PostService.List(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) handleCreatePost(c *gin.Context) {
	var in service.CreatePostInput
	if !s.bindJSON(c, &in) {
		return
	}

	post, err := s.PostService.Create(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (s *Server) handleGetPost(c *gin.Context) {
	post, err := s.PostService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) handleUpdatePost(c *gin.Context) {
	var in service.UpdatePostInput
	if !s.bindJSON(c, &in) {
		return
	}

	post, err := s.PostService.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) handleDeletePost(c *gin.Context) {
	if err := s.PostService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleCheckProfile(c *gin.Context) {
	profileURL := c.Query("profileUrl")
	profile, err := s.ProfileService.Check(c.Request.Context(), profileURL)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profileUrl": profileURL,
		"exists":     profile != nil,
		"profile":    profile,
	})
}

func (s *Server) handleSaveProfile(c *gin.Context) {
	var req profileRequest
	if !s.bindJSON(c, &req) {
		return
	}

	profile, created, err := s.ProfileService.Save(c.Request.Context(), req.ProfileURL, req.Name)
	if err != nil {
		s.respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"profile": profile, "created": created})
}

func (s *Server) handleCheckProfiles(c *gin.Context) {
	var req batchCheckRequest
	if !s.bindJSON(c, &req) {
		return
	}

	existing, notExisting, err := s.ProfileService.CheckBatch(c.Request.Context(), req.ProfileURLs)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"existing": existing, "notExisting": notExisting})
}

func (s *Server) handleMarkConnection(c *gin.Context) {
	var req profileRequest
	if !s.bindJSON(c, &req) {
		return
	}

	profile, err := s.ProfileService.MarkConnectionSent(c.Request.Context(), req.ProfileURL)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (s *Server) handleMarkFollowUp(c *gin.Context) {
	var req profileRequest
	if !s.bindJSON(c, &req) {
		return
	}

	profile, err := s.ProfileService.MarkFollowUpSent(c.Request.Context(), req.ProfileURL)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (s *Server) handleDeleteProfiles(c *gin.Context) {
	n, err := s.ProfileService.DeleteAll(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (s *Server) handleGetProfileURL(c *gin.Context) {
	saved, err := s.ProfileService.SearchURL(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if saved == nil {
		c.JSON(http.StatusOK, gin.H{"profileUrl": nil, "savedAt": nil})
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleSaveProfileURL(c *gin.Context) {
	var req profileRequest
	if !s.bindJSON(c, &req) {
		return
	}

	saved, err := s.ProfileService.SaveSearchURL(c.Request.Context(), req.ProfileURL)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleListErrors(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	unresolved := c.Query("unresolved") == "true"

	logs, err := s.MonitoringService.GetRecentErrors(c.Request.Context(), limit, unresolved)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"errors": logs})
}

func (s *Server) handleResolveError(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		s.respondError(c, apperror.Validation("invalid error id %q", c.Param("id")))
		return
	}

	if err := s.MonitoringService.ResolveError(c.Request.Context(), uint(id)); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

func (s *Server) handleDashboard(c *gin.Context) {
	summary, err := s.MonitoringService.Summary(c.Request.Context(), s.Hub.ClientCount())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
