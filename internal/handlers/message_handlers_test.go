package handlers

import (
	"net/http"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/chat"
	"github.com/stretchr/testify/assert"
)

func TestCreateConversationReusesExistingThread(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM suppliers WHERE id = ? AND verified = TRUE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(20))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM conversations WHERE buyer_id = ? AND supplier_id = ? AND product_id IS NULL")).
		WithArgs(int64(9), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))

	w := performUserJSON(h.CreateConversation, 9, http.MethodPost, "/v1/conversations", map[string]interface{}{
		"supplierId": 4,
	})

	// An existing thread comes back as 200, not 201.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(77), decodeBody(t, w)["conversationId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConversationRejectsOwnStore(t *testing.T) {
	h, mock := newTestHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM suppliers WHERE id = ? AND verified = TRUE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(9))

	w := performUserJSON(h.CreateConversation, 9, http.MethodPost, "/v1/conversations", map[string]interface{}{
		"supplierId": 4,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You cannot message your own store", decodeBody(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendMessageBumpsConversationAndBroadcasts(t *testing.T) {
	h, mock := newTestHandlers(t)
	h.Hub = chat.NewHub()

	membership := regexp.QuoteMeta("SELECT COUNT(*)")
	mock.ExpectQuery(membership).
		WithArgs(int64(77), int64(9), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO messages (conversation_id, sender_id, content, created_at)")).
		WithArgs(int64(77), int64(9), "Is this still available?", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(301, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE conversations SET updated_at = ? WHERE id = ?")).
		WithArgs(sqlmock.AnyArg(), int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := performUserJSON(h.SendMessage, 9, http.MethodPost, "/v1/messages", map[string]interface{}{
		"conversationId": 77,
		"content":        "Is this still available?",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(301), decodeBody(t, w)["messageId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendMessageOutsiderRejected(t *testing.T) {
	h, mock := newTestHandlers(t)
	h.Hub = chat.NewHub()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(int64(77), int64(55), int64(55)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	w := performUserJSON(h.SendMessage, 55, http.MethodPost, "/v1/messages", map[string]interface{}{
		"conversationId": 77,
		"content":        "hello",
	})

	// Handlers answer 400 uniformly; 401/403 belong to the middleware.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You are not part of this conversation", decodeBody(t, w)["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
