package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studentmart/backend/internal/config"
	"github.com/studentmart/backend/internal/models"
)

func newService(t *testing.T) *TokenService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestAccessTokenCarriesSubAndRole(t *testing.T) {
	svc := newService(t)

	raw, err := svc.SignAccessToken(42, models.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.parseAccess(raw)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims["sub"].(float64))
	require.Equal(t, models.RoleAdmin, claims["role"])

	exp := int64(claims["exp"].(float64))
	require.InDelta(t, time.Now().Add(AccessTTL).Unix(), exp, 5)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	svc := newService(t)

	refresh, err := svc.SignRefreshToken(7, models.RoleStudent)
	require.NoError(t, err)
	require.NoError(t, svc.SaveRefreshToken(refresh, 7))

	claims, err := svc.ValidateRefresh(refresh)
	require.NoError(t, err)
	require.EqualValues(t, 7, claims["sub"].(float64))
	require.Equal(t, "refresh", claims["typ"])
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newService(t)

	// An access token must never pass refresh validation, even if an
	// attacker replays it at the refresh endpoint.
	access, err := svc.SignAccessToken(7, models.RoleStudent)
	require.NoError(t, err)

	_, err = svc.ValidateRefresh(access)
	require.Error(t, err)
}

func TestRefreshRejectsTokenWithoutTypClaim(t *testing.T) {
	svc := newService(t)

	claims := jwt.MapClaims{
		"sub": float64(7),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.RefreshSecret)
	require.NoError(t, err)

	_, err = svc.ValidateRefresh(raw)
	require.Error(t, err)
}

func TestRefreshRejectsUnsavedToken(t *testing.T) {
	svc := newService(t)

	refresh, err := svc.SignRefreshToken(7, models.RoleStudent)
	require.NoError(t, err)

	_, err = svc.ValidateRefresh(refresh)
	require.Error(t, err)
}

func TestRotateRevokesOldToken(t *testing.T) {
	svc := newService(t)

	refresh, err := svc.SignRefreshToken(7, models.RoleStudent)
	require.NoError(t, err)
	require.NoError(t, svc.SaveRefreshToken(refresh, 7))

	access, newRefresh, err := svc.RotateToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEqual(t, refresh, newRefresh)

	// The replaced token no longer validates.
	_, err = svc.ValidateRefresh(refresh)
	require.Error(t, err)

	// The new one does.
	_, err = svc.ValidateRefresh(newRefresh)
	require.NoError(t, err)
}

func TestValidateRefreshExpired(t *testing.T) {
	svc := newService(t)

	refresh, err := svc.SignRefreshToken(7, models.RoleStudent)
	require.NoError(t, err)
	require.NoError(t, svc.DB.Create(&models.RefreshToken{
		Token:     refresh,
		UserID:    7,
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}).Error)

	_, err = svc.ValidateRefresh(refresh)
	require.Error(t, err)
}

func TestRefreshCookieShape(t *testing.T) {
	cookie := RefreshCookie("value", time.Now().Add(RefreshTTL))
	require.Equal(t, RefreshCookieName, cookie.Name)
	require.Equal(t, RefreshCookiePath, cookie.Path)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestRequireUserSetsContext(t *testing.T) {
	svc := newService(t)
	e := echo.New()

	raw, err := svc.SignAccessToken(7, models.RoleStudent)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+raw)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := svc.RequireUser(func(c echo.Context) error {
		id, err := UserID(c)
		require.NoError(t, err)
		require.EqualValues(t, 7, id)
		require.Equal(t, models.RoleStudent, c.Get("role"))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUserRejectsMissingToken(t *testing.T) {
	svc := newService(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := svc.RequireUser(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})
	err := handler(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireAdminRejectsStudent(t *testing.T) {
	svc := newService(t)
	e := echo.New()

	raw, err := svc.SignAccessToken(7, models.RoleStudent)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+raw)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := svc.RequireAdmin(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})
	err = handler(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestAccessTokenFromCookieFallback(t *testing.T) {
	svc := newService(t)
	e := echo.New()

	raw, err := svc.SignAccessToken(7, models.RoleStudent)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: raw})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := svc.RequireUser(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
}
