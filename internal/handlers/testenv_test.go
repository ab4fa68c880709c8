package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studentmart/backend/internal/config"
	"github.com/studentmart/backend/internal/events"
	"github.com/studentmart/backend/internal/hash"
	"github.com/studentmart/backend/internal/models"
	"github.com/studentmart/backend/internal/payments"
	"github.com/studentmart/backend/internal/service/token"
	"github.com/studentmart/backend/internal/uploads"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.TokenService

	Auth         *AuthHandler
	Project      *ProjectHandler
	Order        *OrderHandler
	Request      *RequestHandler
	Notification *NotificationHandler
	Payment      *PaymentHandler
	Upload       *UploadHandler
	User         *UserHandler
	Admin        *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	producer := events.Noop{}

	return &testEnv{
		T:            t,
		E:            echo.New(),
		DB:           db,
		Tokens:       tokens,
		Auth:         &AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		Project:      &ProjectHandler{DB: db, Producer: producer},
		Order:        &OrderHandler{DB: db, Producer: producer},
		Request:      &RequestHandler{DB: db, Producer: producer},
		Notification: &NotificationHandler{DB: db},
		Payment:      &PaymentHandler{DB: db, Razorpay: payments.RazorpayMock{}, Stripe: payments.StripeMock{}, Producer: producer},
		Upload:       &UploadHandler{Signer: uploads.StaticSigner{}},
		User:         &UserHandler{DB: db},
		Admin:        &AdminHandler{DB: db},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser seeds the auth context the way RequireUser would.
func asUser(c echo.Context, userID uint, role string) {
	c.Set("userID", userID)
	c.Set("role", role)
}

func (env *testEnv) createUser(email, password, role string) *models.User {
	passwordHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	require.NoError(env.T, env.DB.Create(user).Error)
	return user
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	require.Equal(t, code, he.Code)
}
