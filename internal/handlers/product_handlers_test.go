package handlers

import (
	"net/http"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestVerifyProductSetsVerifiedAndDateTogether(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectBegin()
	// One UPDATE carries both verified and verified_date.
	mock.ExpectExec(regexp.QuoteMeta("SET verified = TRUE, verified_date = ?")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "12").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.user_id, p.name")).
		WithArgs("12").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name"}).AddRow(20, "Coconut Husk"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(int64(20), `Your product "Coconut Husk" is now live.`, "/products/12", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := performAdminPatch(h.VerifyProduct, "12")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyProductAlreadyVerified(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET verified = TRUE, verified_date = ?")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "12").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := performAdminPatch(h.VerifyProduct, "12")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Product not found or already verified", decodeBody(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
