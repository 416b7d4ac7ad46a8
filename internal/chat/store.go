package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/models"
)

// MessageFetcher retrieves the fully joined message behind an event. The
// push event only carries raw row identifiers, which is not enough to
// render (no sender name), so every event triggers one follow-up fetch.
type MessageFetcher interface {
	FetchMessage(ctx context.Context, id int64) (*models.Message, error)
}

// ConversationStore is a process-local cache of the user's conversations,
// keyed by conversation ID, with a defined merge function applied on every
// realtime event. Ordering is eventually consistent: two events for the
// same conversation can race and the later-arriving fetch wins.
type ConversationStore struct {
	mu            sync.Mutex
	fetcher       MessageFetcher
	conversations map[int64]*models.Conversation
	activeID      int64
	active        *models.Conversation
	teardown      func()
	closed        bool
}

// NewConversationStore seeds the store with an initial conversation list.
// teardown, if non-nil, is invoked exactly once on Close to release the
// realtime subscription feeding this store.
func NewConversationStore(fetcher MessageFetcher, conversations []*models.Conversation, teardown func()) *ConversationStore {
	byID := make(map[int64]*models.Conversation, len(conversations))
	for _, conv := range conversations {
		byID[conv.ID] = conv
	}
	return &ConversationStore{
		fetcher:       fetcher,
		conversations: byID,
		teardown:      teardown,
	}
}

// Apply handles one message-change event: fetch the joined message, then
// merge it into the matching conversation by ID (replace-if-present, else
// append) and bump the conversation's UpdatedAt to the message's creation
// time. Applying the same event twice is a no-op.
func (s *ConversationStore) Apply(ctx context.Context, ev MessageEvent) error {
	// The fetch happens outside the lock; a stale response merged late is
	// the accepted weakness of this design.
	msg, err := s.fetcher.FetchMessage(ctx, ev.MessageID)
	if err != nil {
		return fmt.Errorf("fetch message %d: %w", ev.MessageID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[ev.ConversationID]
	if !ok {
		// Event for a conversation we don't hold (e.g. created after the
		// initial list load). Ignored; the next full list load picks it up.
		return nil
	}

	mergeMessage(conv, msg)

	// Refresh the active view model synchronously with the same merge.
	if s.activeID == ev.ConversationID && s.active != nil {
		mergeMessage(s.active, msg)
	}
	return nil
}

// mergeMessage is the reconciliation function: replace-if-present by ID,
// else append, then bump UpdatedAt.
func mergeMessage(conv *models.Conversation, msg *models.Message) {
	replaced := false
	for i, existing := range conv.Messages {
		if existing.ID == msg.ID {
			conv.Messages[i] = msg
			replaced = true
			break
		}
	}
	if !replaced {
		conv.Messages = append(conv.Messages, msg)
	}
	conv.UpdatedAt = msg.CreatedAt
	conv.LastMessage = msg
}

// SetActive marks a conversation as the one currently on screen and
// returns a snapshot of it that Apply keeps refreshed.
func (s *ConversationStore) SetActive(id int64) *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		s.activeID = 0
		s.active = nil
		return nil
	}

	snapshot := *conv
	snapshot.Messages = append([]*models.Message(nil), conv.Messages...)
	s.activeID = id
	s.active = &snapshot
	return s.active
}

// Active returns the active conversation view model, or nil.
func (s *ConversationStore) Active() *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Conversation returns the held conversation with the given ID, or nil.
func (s *ConversationStore) Conversation(id int64) *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversations[id]
}

// Close releases the realtime subscription. Further Closes are no-ops.
func (s *ConversationStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.teardown != nil {
		s.teardown()
	}
}
