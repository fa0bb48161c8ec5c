package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study-match/internal/service"
)

// QuizHandler holds dependencies for the quiz and profile endpoints.
type QuizHandler struct {
	logger *zap.Logger
	quiz   *service.QuizService
}

func NewQuizHandler(logger *zap.Logger, quiz *service.QuizService) *QuizHandler {
	return &QuizHandler{logger: logger, quiz: quiz}
}

// GetQuiz handles GET /quiz.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	questions, err := h.quiz.GetQuiz(c.Request.Context())
	if err != nil {
		h.logger.Error("load quiz failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load quiz"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// SubmitAnswers handles POST /quiz/answers.
func (h *QuizHandler) SubmitAnswers(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		// question id -> chosen option id
		Answers map[string]string `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	profile, err := h.quiz.SubmitAnswers(c.Request.Context(), claims.UserID, req.Answers)
	if err != nil {
		if errors.Is(err, service.ErrQuizInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("submit answers failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit answers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// SkipQuiz handles POST /quiz/skip.
func (h *QuizHandler) SkipQuiz(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, err := h.quiz.SkipQuiz(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("skip quiz failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not skip quiz"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetProfile handles GET /profile.
func (h *QuizHandler) GetProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, err := h.quiz.ProfileSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("load profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
