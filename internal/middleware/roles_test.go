package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// runMiddleware drives a single middleware with a pre-set userID and
// reports whether the chain was allowed to continue.
func runMiddleware(t *testing.T, mw gin.HandlerFunc, userID interface{}) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != nil {
		c.Set("userID", userID)
	}

	mw(c)
	return w, !c.IsAborted()
}

func TestAdminMiddlewareRejectsBuyer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("buyer"))

	w, passed := runMiddleware(t, AdminMiddleware(db), int64(9))

	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminMiddlewareAllowsAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id = ?")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

	_, passed := runMiddleware(t, AdminMiddleware(db), int64(1))

	assert.True(t, passed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierMiddlewareRejectsPendingSupplier(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, verified FROM suppliers WHERE user_id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "verified"}).AddRow(4, false))

	w, passed := runMiddleware(t, SupplierMiddleware(db), int64(9))

	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierMiddlewareRejectsBuyerWithoutProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, verified FROM suppliers WHERE user_id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "verified"}))

	w, passed := runMiddleware(t, SupplierMiddleware(db), int64(9))

	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplierMiddlewareSetsSupplierID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, verified FROM suppliers WHERE user_id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "verified"}).AddRow(4, true))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("userID", int64(9))

	SupplierMiddleware(db)(c)

	assert.False(t, c.IsAborted())
	supplierID, exists := c.Get("supplierID")
	assert.True(t, exists)
	assert.Equal(t, int64(4), supplierID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
