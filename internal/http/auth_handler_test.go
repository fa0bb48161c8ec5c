package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"study-match/internal/domain"
	"study-match/internal/service"
)

type stubUserRepo struct {
	byEmail map[string]domain.User
}

func (s *stubUserRepo) Create(_ context.Context, user domain.User) error {
	s.byEmail[user.Email] = user
	return nil
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	users := service.NewUserService(&stubUserRepo{byEmail: make(map[string]domain.User)}, logger)
	handler := NewAuthHandler(logger, users, testTokenService())

	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_RegisterThenLogin(t *testing.T) {
	r := authTestRouter()

	rec := postJSON(t, r, "/auth/register", gin.H{
		"email":        "student@example.com",
		"display_name": "Sam",
		"password":     "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.Tokens.AccessToken == "" {
		t.Fatalf("register must issue tokens")
	}

	rec = postJSON(t, r, "/auth/login", gin.H{
		"email":    "student@example.com",
		"password": "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	r := authTestRouter()

	body := gin.H{"email": "student@example.com", "password": "correct-horse"}
	if rec := postJSON(t, r, "/auth/register", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec := postJSON(t, r, "/auth/register", body); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate email, got %d", rec.Code)
	}
}

func TestAuthHandler_LoginRejectsWrongPassword(t *testing.T) {
	r := authTestRouter()

	postJSON(t, r, "/auth/register", gin.H{"email": "student@example.com", "password": "correct-horse"})
	rec := postJSON(t, r, "/auth/login", gin.H{"email": "student@example.com", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
