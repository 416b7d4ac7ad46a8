package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/auth"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/chat"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

//
// --- Conversations & Messages ---
//

// userInConversation reports whether the user is the buyer or the supplier
// side of the conversation.
func (h *Handlers) userInConversation(q Querier, conversationID, userID int64) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM conversations c
		JOIN suppliers s ON c.supplier_id = s.id
		WHERE c.id = ? AND (c.buyer_id = ? OR s.user_id = ?)`
	if err := q.QueryRow(query, conversationID, userID, userID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

type CreateConversationInput struct {
	SupplierID int64  `json:"supplierId" binding:"required"`
	ProductID  *int64 `json:"productId"`
}

// CreateConversation is the handler for POST /v1/conversations.
// Find-or-create: one thread per (buyer, supplier, product) triple.
func (h *Handlers) CreateConversation(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	buyerID := userIDRaw.(int64)

	var input CreateConversationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	// 1. --- Supplier Must Exist, and Not Be Yourself ---
	var supplierUserID int64
	err := h.DB.QueryRow("SELECT user_id FROM suppliers WHERE id = ? AND verified = TRUE", input.SupplierID).Scan(&supplierUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Supplier not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking supplier"})
		return
	}
	if supplierUserID == buyerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "You cannot message your own store"})
		return
	}

	// 2. --- Find Existing Thread ---
	var conversationID int64
	findQuery := "SELECT id FROM conversations WHERE buyer_id = ? AND supplier_id = ?"
	findArgs := []interface{}{buyerID, input.SupplierID}
	if input.ProductID != nil {
		findQuery += " AND product_id = ?"
		findArgs = append(findArgs, *input.ProductID)
	} else {
		findQuery += " AND product_id IS NULL"
	}
	err = h.DB.QueryRow(findQuery, findArgs...).Scan(&conversationID)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"conversationId": conversationID})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking conversations"})
		return
	}

	// 3. --- Create a New One ---
	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO conversations (buyer_id, supplier_id, product_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		buyerID, input.SupplierID, input.ProductID, now, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to create conversation"})
		return
	}
	conversationID, _ = result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{"conversationId": conversationID})
}

// GetMyConversations is the handler for GET /v1/conversations.
// Both sides of the thread see it; newest-updated first, with the
// counterpart's display name and the last message joined in.
func (h *Handlers) GetMyConversations(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	query := `
		SELECT c.id, c.buyer_id, c.supplier_id, c.product_id, c.created_at, c.updated_at,
			CASE WHEN c.buyer_id = ? THEN s.business_name ELSE bu.display_name END
		FROM conversations c
		JOIN suppliers s ON c.supplier_id = s.id
		JOIN users bu ON c.buyer_id = bu.id
		WHERE c.buyer_id = ? OR s.user_id = ?
		ORDER BY c.updated_at DESC`

	rows, err := h.DB.Query(query, userID, userID, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	conversations := []*models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.BuyerID,
			&conv.SupplierID,
			&conv.ProductID,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&conv.CounterpartName,
		); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan conversation row"})
			return
		}
		conversations = append(conversations, &conv)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating conversation rows"})
		return
	}

	// Attach last messages one by one; conversation lists are short.
	for _, conv := range conversations {
		msg, err := h.getLastMessage(h.DB, conv.ID)
		if err != nil && err != sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to load last message"})
			return
		}
		conv.LastMessage = msg
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetConversationMessages is the handler for GET /v1/conversations/:id/messages.
func (h *Handlers) GetConversationMessages(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	conversationIDStr := c.Param("id")

	var conversationID int64
	if err := h.DB.QueryRow("SELECT id FROM conversations WHERE id = ?", conversationIDStr).Scan(&conversationID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Conversation not found"})
		return
	}

	member, err := h.userInConversation(h.DB, conversationID, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking membership"})
		return
	}
	if !member {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "You are not part of this conversation"})
		return
	}

	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.created_at, u.display_name
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = ?
		ORDER BY m.created_at ASC`

	rows, err := h.DB.Query(query, conversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database query failed"})
		return
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt, &m.SenderName); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to scan message row"})
			return
		}
		messages = append(messages, &m)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Error iterating message rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type SendMessageInput struct {
	ConversationID int64  `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

// SendMessage is the handler for POST /v1/messages.
// The conversation's updated_at is bumped to the message's creation time,
// and an identifier-only event goes out on the websocket hub. Clients
// fetch the joined message through GET /v1/messages/:id.
func (h *Handlers) SendMessage(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error()})
		return
	}

	member, err := h.userInConversation(h.DB, input.ConversationID, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking membership"})
		return
	}
	if !member {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "You are not part of this conversation"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec("INSERT INTO messages (conversation_id, sender_id, content, created_at) VALUES (?, ?, ?, ?)",
		input.ConversationID, userID, input.Content, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to send message"})
		return
	}
	messageID, _ := result.LastInsertId()

	if _, err := tx.Exec("UPDATE conversations SET updated_at = ? WHERE id = ?", now, input.ConversationID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to update conversation"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Failed to commit transaction"})
		return
	}

	// Push after commit so subscribers can immediately fetch the row.
	h.Hub.Broadcast(chat.MessageEvent{
		Type:           "INSERT",
		ConversationID: input.ConversationID,
		MessageID:      messageID,
	})

	c.JSON(http.StatusCreated, gin.H{"messageId": messageID})
}

// GetMessage is the handler for GET /v1/messages/:id.
// This is the follow-up fetch behind every realtime event: the push
// payload carries identifiers only, this returns the renderable message.
func (h *Handlers) GetMessage(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)
	messageIDStr := c.Param("id")

	var m models.Message
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.created_at, u.display_name
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = ?`
	err := h.DB.QueryRow(query, messageIDStr).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt, &m.SenderName)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Message not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error"})
		return
	}

	member, err := h.userInConversation(h.DB, m.ConversationID, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Database error checking membership"})
		return
	}
	if !member {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "You are not part of this conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": m})
}

// getLastMessage loads the newest message of a conversation.
func (h *Handlers) getLastMessage(q Querier, conversationID int64) (*models.Message, error) {
	var m models.Message
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.created_at, u.display_name
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = ?
		ORDER BY m.created_at DESC
		LIMIT 1`
	err := q.QueryRow(query, conversationID).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.CreatedAt, &m.SenderName)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

//
// --- Websocket ---
//

// Browsers cannot set an Authorization header on websocket dials, so the
// token rides in the query string instead.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS is the handler for GET /v1/ws?token=<jwt>.
// The connection receives a MessageEvent for every new message on the
// platform; clients filter by the conversations they hold.
func (h *Handlers) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if _, err := auth.ValidateToken(token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Invalid or expired token"})
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	h.Hub.Register(conn)
}
