package domain

import "time"

// Message roles within a conversation transcript.
const (
	MessageRoleUser = "user"
	MessageRoleBot  = "bot"
)

// Message is a single transcript entry. Bot messages grow in place while a
// reply is streaming; user messages are immutable once appended.
type Message struct {
	ID          int64     `json:"id"`
	Role        string    `json:"role"` // user, bot
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Paging describes the position of one page within the history collection.
// Pages are zero-based and fetched newest-first.
type Paging struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// HasNext reports whether an older page exists after this one.
func (p Paging) HasNext() bool {
	return (p.Page+1)*p.PerPage < p.Total
}

// MessagePage is the response body of the paged history API.
type MessagePage struct {
	Data   []Message `json:"data"`
	Paging Paging    `json:"paging"`
}
