package devserver

import (
	"sync"
	"time"

	"github.com/fitpulse/companion/internal/domain"
)

// historyStore keeps per-conversation transcripts in memory, oldest first.
type historyStore struct {
	mu     sync.RWMutex
	byConv map[string][]domain.Message
	nextID int64
}

func newHistoryStore() *historyStore {
	return &historyStore{byConv: map[string][]domain.Message{}, nextID: 1}
}

func (h *historyStore) Append(conversationID, role, content string) domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now().UTC()
	msg := domain.Message{
		ID:          h.nextID,
		Role:        role,
		Content:     content,
		ContentType: "text",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	h.nextID++
	h.byConv[conversationID] = append(h.byConv[conversationID], msg)
	return msg
}

// Page returns one zero-based page, newest message first, the order the
// real platform serves history in.
func (h *historyStore) Page(conversationID string, page, perPage int) *domain.MessagePage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if page < 0 {
		page = 0
	}
	all := h.byConv[conversationID]
	total := len(all)

	newest := make([]domain.Message, total)
	for i, msg := range all {
		newest[total-1-i] = msg
	}

	start := page * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return &domain.MessagePage{
		Data:   newest[start:end],
		Paging: domain.Paging{Page: page, PerPage: perPage, Total: total},
	}
}
