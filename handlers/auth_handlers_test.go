package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagetrail/api/middleware"
	"pagetrail/api/models"
	"pagetrail/api/utils"
)

func newAuthRouter(users *fakeUserStore) (*gin.Engine, *utils.JWTManager) {
	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	h := NewAuthHandlers(users, jwtManager, false, zap.NewNop())
	r := gin.New()
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/profile", middleware.AuthRequired(jwtManager, zap.NewNop()), h.Profile)
	r.GET("/health", HealthCheck)
	return r, jwtManager
}

func TestSignupAndLogin(t *testing.T) {
	users := newFakeUserStore()
	r, jwtManager := newAuthRouter(users)

	w := doJSON(r, http.MethodPost, "/signup", `{"email":"ana@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEqual(t, []byte("correct horse"), users.users["ana@example.com"].HashedPassword)

	w = doJSON(r, http.MethodPost, "/signup", `{"email":"ana@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/login", `{"email":"ana@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	claims, err := jwtManager.Validate(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.JWTCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookies[0])
	pw := httptest.NewRecorder()
	r.ServeHTTP(pw, req)
	require.Equal(t, http.StatusOK, pw.Code)
	var profile models.Profile
	require.NoError(t, json.Unmarshal(pw.Body.Bytes(), &profile))
	assert.Equal(t, "ana@example.com", profile.UserEmail)
	assert.Equal(t, 1, profile.UserID)
	assert.Equal(t, 2026, profile.MemberSince.Year())
}

func TestProfile_DeletedAccount(t *testing.T) {
	users := newFakeUserStore()
	r, jwtManager := newAuthRouter(users)
	token, err := jwtManager.Generate(&models.User{ID: 42, Email: "gone@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_Rejections(t *testing.T) {
	users := newFakeUserStore()
	r, _ := newAuthRouter(users)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/signup", `{"email":"ana@example.com","password":"correct horse"}`).Code)

	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/login", `{"email":"ana@example.com","password":"wrong password"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/login", `{"email":"bob@example.com","password":"correct horse"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/login", `{"email":"not-an-email"}`).Code)

	users.err = errors.New("db down")
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/login", `{"email":"ana@example.com","password":"correct horse"}`).Code)
}

func TestSignup_Validation(t *testing.T) {
	r, _ := newAuthRouter(newFakeUserStore())
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/signup", `{"email":"ana@example.com","password":"short"}`).Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	r, _ := newAuthRouter(newFakeUserStore())

	w := doJSON(r, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestHealthCheck(t *testing.T) {
	r, _ := newAuthRouter(newFakeUserStore())
	w := doJSON(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
