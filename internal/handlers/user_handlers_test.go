package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestHandlers returns a Handlers backed by a sqlmock connection.
func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Handlers{DB: db}, mock
}

// performJSON runs a single handler against a JSON body and returns the
// recorded response.
func performJSON(handler gin.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	handler(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLoginSuccess(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	h, mock := newTestHandlers(t)

	var password models.Password
	require.NoError(t, password.Set("correct-horse-battery"))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "role", "email", "password_hash", "display_name", "created_at", "updated_at"}).
		AddRow(7, "buyer", "ana@example.com", password.Hash, "Ana", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, role, email, password_hash, display_name, created_at, updated_at")).
		WithArgs("ana@example.com").
		WillReturnRows(rows)

	w := performJSON(h.Login, http.MethodPost, "/v1/login", gin.H{
		"email":    "ana@example.com",
		"password": "correct-horse-battery",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "ana@example.com", user["email"])
	// The hash must never appear in a response.
	assert.NotContains(t, w.Body.String(), password.Hash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	h, mock := newTestHandlers(t)

	var password models.Password
	require.NoError(t, password.Set("the-real-password"))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "role", "email", "password_hash", "display_name", "created_at", "updated_at"}).
		AddRow(7, "buyer", "ana@example.com", password.Hash, "Ana", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, role, email, password_hash, display_name, created_at, updated_at")).
		WithArgs("ana@example.com").
		WillReturnRows(rows)

	w := performJSON(h.Login, http.MethodPost, "/v1/login", gin.H{
		"email":    "ana@example.com",
		"password": "a-wrong-guess",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "Invalid login credentials", body["message"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, role, email, password_hash, display_name, created_at, updated_at")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := performJSON(h.Login, http.MethodPost, "/v1/login", gin.H{
		"email":    "nobody@example.com",
		"password": "whatever-it-is",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// Unknown email and wrong password are indistinguishable to the caller.
	assert.Equal(t, "Invalid login credentials", decodeBody(t, w)["message"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE email = ?")).
		WithArgs("taken@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := performJSON(h.Register, http.MethodPost, "/v1/register", gin.H{
		"displayName": "Ana",
		"email":       "taken@example.com",
		"password":    "longenough",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "An account with this email already exists", decodeBody(t, w)["message"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterShortPasswordRejected(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := performJSON(h.Register, http.MethodPost, "/v1/register", gin.H{
		"displayName": "Ana",
		"email":       "ana@example.com",
		"password":    "short",
	})

	// Binding fails before any query runs.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["error"])
}

func TestRegisterCreatesBuyer(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE email = ?")).
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("buyer", "new@example.com", sqlmock.AnyArg(), "Ana", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	w := performJSON(h.Register, http.MethodPost, "/v1/register", gin.H{
		"displayName": "Ana",
		"email":       "new@example.com",
		"password":    "longenough",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, float64(42), user["id"])
	assert.Equal(t, "buyer", user["role"])

	assert.NoError(t, mock.ExpectationsWereMet())
}
