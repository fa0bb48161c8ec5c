package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/service"
)

// GroupHandler holds dependencies for the group and matching endpoints.
type GroupHandler struct {
	logger       *zap.Logger
	groups       *service.GroupService
	matching     *service.MatchingService
	groupProfile *service.GroupProfileService
}

func NewGroupHandler(
	logger *zap.Logger,
	groups *service.GroupService,
	matching *service.MatchingService,
	groupProfile *service.GroupProfileService,
) *GroupHandler {
	return &GroupHandler{
		logger:       logger,
		groups:       groups,
		matching:     matching,
		groupProfile: groupProfile,
	}
}

// CreateGroup handles POST /groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req service.CreateGroupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), claims.UserID, req)
	if err != nil {
		if errors.Is(err, service.ErrGroupInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("create group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// JoinGroup handles POST /groups/:id/join.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	err := h.groups.JoinGroup(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGroupNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		case errors.Is(err, service.ErrGroupFull), errors.Is(err, service.ErrGroupNotJoinable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("join group failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join group"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

// LeaveGroup handles POST /groups/:id/leave.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	err := h.groups.LeaveGroup(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAMember):
			c.JSON(http.StatusConflict, gin.H{"error": "not a member"})
		default:
			h.logger.Error("leave group failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave group"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

// GetMatches handles GET /groups/matches: the ranked top recommendations.
func (h *GroupHandler) GetMatches(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	matches, err := h.matching.RankGroupsForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("rank groups failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not rank groups"})
		return
	}
	if matches == nil {
		matches = []service.GroupRecommendation{}
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// BrowseMatches handles GET /groups/browse with optional course, visibility
// and availability query filters.
func (h *GroupHandler) BrowseMatches(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	filters := service.MatchFilters{
		CourseID:     c.Query("course_id"),
		Visibility:   domain.GroupVisibility(c.Query("visibility")),
		Availability: service.AvailabilityFilter(c.Query("availability")),
	}

	matches, err := h.matching.ListAllMatches(c.Request.Context(), claims.UserID, filters)
	if err != nil {
		h.logger.Error("browse groups failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not browse groups"})
		return
	}
	if matches == nil {
		matches = []service.GroupRecommendation{}
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// GetGroupMatch handles GET /groups/:id/match: one group's score for the
// authenticated student.
func (h *GroupHandler) GetGroupMatch(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	match, err := h.matching.ScoreSpecificGroup(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		h.logger.Error("score group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not score group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": match})
}

// GetGroupProfile handles GET /groups/:id/profile: the aggregate role
// vector of a group.
func (h *GroupHandler) GetGroupProfile(c *gin.Context) {
	if _, ok := GetAuthClaims(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, found, err := h.groupProfile.GetAggregate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("load group profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load group profile"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "group profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
