package models

import "time"

// Conversation is a buyer<->supplier thread, optionally tied to a product.
// UpdatedAt is bumped to the creation time of the newest message so the
// conversation list can be ordered by recency.
type Conversation struct {
	ID         int64     `json:"id" db:"id"`
	BuyerID    int64     `json:"buyerId" db:"buyer_id"`
	SupplierID int64     `json:"supplierId" db:"supplier_id"`
	ProductID  *int64    `json:"productId,omitempty" db:"product_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	// Join fields for the conversation list.
	CounterpartName string     `json:"counterpartName,omitempty" db:"-"`
	LastMessage     *Message   `json:"lastMessage,omitempty" db:"-"`
	Messages        []*Message `json:"messages,omitempty" db:"-"`
}

// Message is a single chat message. SenderName is joined from users;
// the realtime push event only carries the raw row, so clients re-fetch
// the joined shape through GET /v1/messages/:id.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversationId" db:"conversation_id"`
	SenderID       int64     `json:"senderId" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`

	SenderName string `json:"senderName,omitempty" db:"-"`
}
