package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// performUserJSON is performJSON with the userID the auth middleware would
// have put into the context.
func performUserJSON(handler gin.HandlerFunc, userID int64, method, target string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", userID)
	handler(c)
	return w
}

func TestAddFavoriteDuplicate(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products WHERE id = ? AND verified = TRUE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM favorites WHERE user_id = ? AND product_id = ?")).
		WithArgs(int64(9), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := performUserJSON(h.AddFavorite, 9, http.MethodPost, "/v1/favorites", gin.H{"productId": 3})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Product is already in your favorites", decodeBody(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavoriteUnverifiedProduct(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products WHERE id = ? AND verified = TRUE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	w := performUserJSON(h.AddFavorite, 9, http.MethodPost, "/v1/favorites", gin.H{"productId": 3})

	// Unverified products are invisible to buyers, including here.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Product not found", decodeBody(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavoriteHappyPath(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products WHERE id = ? AND verified = TRUE")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM favorites WHERE user_id = ? AND product_id = ?")).
		WithArgs(int64(9), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs(int64(9), int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(21, 1))

	w := performUserJSON(h.AddFavorite, 9, http.MethodPost, "/v1/favorites", gin.H{"productId": 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(21), decodeBody(t, w)["favoriteId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAlbumClearsContentsBeforeAlbum(t *testing.T) {
	h, mock := newTestHandlers(t)

	// Expectations are ordered: the child rows must go before the album row,
	// or a restricting foreign key rejects the parent delete.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE af FROM album_favorites af")).
		WithArgs("6", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM albums WHERE id = ? AND user_id = ?")).
		WithArgs("6", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodDelete, "/v1/albums/6", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", int64(9))
	c.Params = gin.Params{{Key: "id", Value: "6"}}
	h.DeleteAlbum(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAlbumNotFound(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE af FROM album_favorites af")).
		WithArgs("6", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM albums WHERE id = ? AND user_id = ?")).
		WithArgs("6", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	req := httptest.NewRequest(http.MethodDelete, "/v1/albums/6", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", int64(9))
	c.Params = gin.Params{{Key: "id", Value: "6"}}
	h.DeleteAlbum(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Album not found", decodeBody(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveRatingNotRated(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ratings WHERE user_id = ? AND product_id = ?")).
		WithArgs(int64(9), "3").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodDelete, "/v1/ratings/3", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", int64(9))
	c.Params = gin.Params{{Key: "product_id", Value: "3"}}
	h.RemoveRating(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You have not rated this product", decodeBody(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
