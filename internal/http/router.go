package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study-match/internal/service"
)

// NewRouter wires middlewares and routes.
func NewRouter(
	logger *zap.Logger,
	tokens *service.TokenService,
	authH *AuthHandler,
	quizH *QuizHandler,
	feedH *FeedHandler,
	groupH *GroupHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)

	authed := r.Group("/", JWTAuthMiddleware(tokens))

	authed.GET("/quiz", quizH.GetQuiz)
	authed.POST("/quiz/answers", quizH.SubmitAnswers)
	authed.POST("/quiz/skip", quizH.SkipQuiz)
	authed.GET("/profile", quizH.GetProfile)

	authed.GET("/feed", feedH.GetFeed)

	authed.POST("/groups", groupH.CreateGroup)
	authed.GET("/groups/matches", groupH.GetMatches)
	authed.GET("/groups/browse", groupH.BrowseMatches)
	authed.GET("/groups/:id/match", groupH.GetGroupMatch)
	authed.GET("/groups/:id/profile", groupH.GetGroupProfile)
	authed.POST("/groups/:id/join", groupH.JoinGroup)
	authed.POST("/groups/:id/leave", groupH.LeaveGroup)

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
