package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func performAdminPatch(handler gin.HandlerFunc, id string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", nil)
	c.Set("userID", int64(1))
	c.Params = gin.Params{{Key: "id", Value: id}}
	handler(c)
	return w
}

func TestVerifySupplierSetsVerifiedAndDateTogether(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectBegin()
	// One UPDATE carries both verified and verified_date.
	mock.ExpectExec(regexp.QuoteMeta("SET verified = TRUE, verified_date = ?")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM suppliers WHERE id = ?")).
		WithArgs("4").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(20))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(int64(20), "Your supplier application has been approved. You can now list products.", "/supplier/dashboard", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := performAdminPatch(h.VerifySupplier, "4")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySupplierAlreadyVerified(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET verified = TRUE, verified_date = ?")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "4").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := performAdminPatch(h.VerifySupplier, "4")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Supplier not found or already verified", decodeBody(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectSupplierDeletesAndNotifies(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM suppliers WHERE id = ? AND verified = FALSE")).
		WithArgs("4").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(20))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM suppliers WHERE id = ?")).
		WithArgs("4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(int64(20), "Your supplier application was rejected: Document is unreadable", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := performUserJSON(func(c *gin.Context) {
		c.Params = gin.Params{{Key: "id", Value: "4"}}
		h.RejectSupplier(c)
	}, 1, http.MethodPatch, "/v1/admin/suppliers/4/reject", gin.H{"reason": "Document is unreadable"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
