package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/service/token"
)

type sessionResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
	RefreshToken string `json:"refresh_token"`
}

func refreshCookieOf(rec interface{ Result() *http.Response }) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == token.RefreshCookieName {
			return ck
		}
	}
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "admin@x.com",
		"password": "student123",
		"name":     "Demo User",
	})
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reg sessionResponse
	decodeJSON(t, rec, &reg)
	require.True(t, reg.Success)
	require.NotEmpty(t, reg.Token)
	// Registration never grants anything beyond the student role, even
	// for admin-looking addresses.
	require.Equal(t, models.RoleStudent, reg.User.Role)

	rec, c = env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "admin@x.com",
		"password": "student123",
	})
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var login sessionResponse
	decodeJSON(t, rec, &login)
	require.True(t, login.Success)
	require.NotEmpty(t, login.Token)
	require.Equal(t, "admin@x.com", login.User.Email)
	require.Equal(t, models.RoleStudent, login.User.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("user@example.com", "correct-password", models.RoleStudent)

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "wrong-password",
	})
	err := env.Auth.Login(c)
	requireHTTPError(t, err, http.StatusUnauthorized)

	_, c = env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "user@example.com",
	})
	err = env.Auth.Login(c)
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestRefreshTokenStaysOutOfBody(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("user@example.com", "password", models.RoleStudent)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "password",
	})
	require.NoError(t, env.Auth.Login(c))

	var login sessionResponse
	decodeJSON(t, rec, &login)
	require.Empty(t, login.RefreshToken)

	ck := refreshCookieOf(rec)
	require.NotNil(t, ck)
	require.NotEmpty(t, ck.Value)
	require.True(t, ck.HttpOnly)
	require.Equal(t, token.RefreshCookiePath, ck.Path)
}

func TestRefreshRotatesSession(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("user@example.com", "password", models.RoleStudent)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "password",
	})
	require.NoError(t, env.Auth.Login(c))
	ck := refreshCookieOf(rec)
	require.NotNil(t, ck)

	rec, c = env.doJSONRequest(http.MethodPost, "/api/auth/refresh", nil, &http.Cookie{
		Name:  token.RefreshCookieName,
		Value: ck.Value,
	})
	require.NoError(t, env.Auth.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	decodeJSON(t, rec, &resp)
	require.NotEmpty(t, resp.Token)

	// The old refresh token is revoked by rotation.
	_, c = env.doJSONRequest(http.MethodPost, "/api/auth/refresh", nil, &http.Cookie{
		Name:  token.RefreshCookieName,
		Value: ck.Value,
	})
	err := env.Auth.Refresh(c)
	requireHTTPError(t, err, http.StatusUnauthorized)
}

func TestRefreshWithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", nil)
	err := env.Auth.Refresh(c)
	requireHTTPError(t, err, http.StatusUnauthorized)
}

func TestRefreshRejectsAccessSecretToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("user@example.com", "password", models.RoleStudent)

	// A token signed with the access secret must not pass as a refresh
	// token: the secrets differ to prevent token-type confusion.
	accessToken, err := env.Tokens.SignAccessToken(user.ID, user.Role)
	require.NoError(t, err)

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", nil, &http.Cookie{
		Name:  token.RefreshCookieName,
		Value: accessToken,
	})
	err = env.Auth.Refresh(c)
	requireHTTPError(t, err, http.StatusUnauthorized)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("user@example.com", "password", models.RoleStudent)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "user@example.com",
		"password": "password",
	})
	require.NoError(t, env.Auth.Login(c))
	ck := refreshCookieOf(rec)
	require.NotNil(t, ck)

	rec, c = env.doJSONRequest(http.MethodPost, "/api/auth/logout", nil, &http.Cookie{
		Name:  token.RefreshCookieName,
		Value: ck.Value,
	})
	require.NoError(t, env.Auth.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", ck.Value).First(&stored).Error)
	require.True(t, stored.Revoked)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("user@example.com", "password", models.RoleStudent)

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "user@example.com",
		"password": "password",
	})
	err := env.Auth.Register(c)
	requireHTTPError(t, err, http.StatusConflict)
}
