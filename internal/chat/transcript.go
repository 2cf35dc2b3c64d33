package chat

import (
	"sync"
	"time"

	"github.com/fitpulse/companion/internal/domain"
)

// Transcript holds the loaded history pages plus locally appended entries.
// Pages are kept exactly as the history API returns them, newest page
// first and newest message first within a page; Messages flattens and
// reverses so the oldest loaded message renders first, matching chat
// display order.
type Transcript struct {
	mu     sync.RWMutex
	pages  [][]domain.Message // pages[0] is the newest page
	paging domain.Paging      // paging of the deepest page loaded so far
	loaded bool
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// AddPage records one fetched history page. Callers load pages in order,
// newest (page 0) first, so each added page is older than the last.
func (t *Transcript) AddPage(page *domain.MessagePage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pages = append(t.pages, page.Data)
	t.paging = page.Paging
	t.loaded = true
}

// Append adds a locally created message as the newest transcript entry.
func (t *Transcript) Append(msg domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pages) == 0 {
		t.pages = [][]domain.Message{nil}
	}
	t.pages[0] = append([]domain.Message{msg}, t.pages[0]...)
}

// ReplaceContent swaps the full content of the message with the given id.
// Used while a bot reply streams: the accumulated text replaces whatever
// was rendered before, it is never appended piecewise.
func (t *Transcript) ReplaceContent(id int64, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for pi := range t.pages {
		for mi := range t.pages[pi] {
			if t.pages[pi][mi].ID == id {
				t.pages[pi][mi].Content = content
				t.pages[pi][mi].UpdatedAt = time.Now()
				return
			}
		}
	}
}

// Messages returns the transcript oldest-first.
func (t *Transcript) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var flat []domain.Message
	for _, page := range t.pages {
		flat = append(flat, page...)
	}
	for i, j := 0, len(flat)-1; i < j; i, j = i+1, j-1 {
		flat[i], flat[j] = flat[j], flat[i]
	}
	return flat
}

// LatestBot returns the newest bot message, if any.
func (t *Transcript) LatestBot() (domain.Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, page := range t.pages {
		for _, msg := range page {
			if msg.Role == domain.MessageRoleBot {
				return msg, true
			}
		}
	}
	return domain.Message{}, false
}

// HasOlder reports whether an older history page can still be fetched.
func (t *Transcript) HasOlder() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.loaded && t.paging.HasNext()
}

// NextPage returns the page number to request for older history.
func (t *Transcript) NextPage() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.loaded {
		return 0
	}
	return t.paging.Page + 1
}
