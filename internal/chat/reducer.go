package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fitpulse/companion/internal/domain"
	"github.com/fitpulse/companion/pkg/logger"
)

// ErrorReplyText is inserted as a bot message when the send or the stream
// fails at the transport level.
const ErrorReplyText = "Sorry, something went wrong. Please try again."

// SessionSource hands out a usable session, refreshing tokens as needed.
type SessionSource interface {
	Ensure(ctx context.Context) (*domain.Session, error)
}

// Gate decides whether a user may use chat at all.
type Gate interface {
	Allow(ctx context.Context, role string, chatEnabled bool) (bool, error)
}

// Cache persists transcript messages locally for offline viewing.
type Cache interface {
	PutMessages(conversationID string, msgs []domain.Message) error
}

// Config wires a Reducer.
type Config struct {
	Client   *Client
	Sessions SessionSource
	Profile  *domain.Profile
	Gate     Gate  // optional
	Cache    Cache // optional
	PerPage  int

	// OnUpdate, when set, runs after every transcript mutation so a UI
	// can re-render.
	OnUpdate func()
}

// Reducer maintains one conversation's transcript: optimistic user
// entries, a bot message that grows in place while the reply streams, and
// older pages loaded on demand.
//
// SendMessage must not be called again before the previous call returns;
// callers are expected to disable sending while Sending reports true. The
// reducer is inert without a session, a chat-enabled profile, and a
// resolved conversation id.
type Reducer struct {
	cfg        Config
	transcript *Transcript

	mu      sync.Mutex
	sending bool
}

// NewReducer creates a reducer over an empty transcript. LoadHistory is
// expected to run before the first send.
func NewReducer(cfg Config) *Reducer {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 20
	}
	return &Reducer{cfg: cfg, transcript: NewTranscript()}
}

// Sending reports whether a send is in flight and no reply bytes have
// arrived yet. UIs use it for the typing indicator and to disable send.
func (r *Reducer) Sending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sending
}

func (r *Reducer) setSending(v bool) {
	r.mu.Lock()
	r.sending = v
	r.mu.Unlock()
}

// Messages returns the transcript oldest-first.
func (r *Reducer) Messages() []domain.Message {
	return r.transcript.Messages()
}

// QuickReplies returns the quick-reply options of the latest bot message,
// re-derived from its raw content on every call.
func (r *Reducer) QuickReplies() []string {
	msg, ok := r.transcript.LatestBot()
	if !ok {
		return nil
	}
	return Options(msg.Content)
}

// HasOlder reports whether an older history page can still be loaded.
func (r *Reducer) HasOlder() bool {
	return r.transcript.HasOlder()
}

// allowed checks every send/load guard and resolves the session. Any
// missing precondition makes the component inert rather than an error.
func (r *Reducer) allowed(ctx context.Context) (*domain.Session, bool) {
	if r.cfg.Sessions == nil || r.cfg.Profile == nil {
		return nil, false
	}
	if !r.cfg.Profile.ChatEnabled || r.cfg.Profile.ConversationID == "" {
		return nil, false
	}

	sess, err := r.cfg.Sessions.Ensure(ctx)
	if err != nil || sess == nil {
		logger.Debugf("chat: no usable session: %v", err)
		return nil, false
	}

	if r.cfg.Gate != nil {
		ok, err := r.cfg.Gate.Allow(ctx, sess.Role, r.cfg.Profile.ChatEnabled)
		if err != nil {
			logger.Warnf("chat: policy evaluation failed: %v", err)
			return nil, false
		}
		if !ok {
			return nil, false
		}
	}
	return sess, true
}

// SendMessage appends the user message optimistically, streams the reply,
// and grows a single bot message as chunks arrive. Whitespace-only content
// is a no-op. Transport failures degrade to one inserted error bubble;
// nothing is returned to the caller and the sending flag is always cleared.
func (r *Reducer) SendMessage(ctx context.Context, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	sess, ok := r.allowed(ctx)
	if !ok {
		return
	}

	now := time.Now()
	userMsg := domain.Message{
		ID:          now.UnixMilli(),
		Role:        domain.MessageRoleUser,
		Content:     content,
		ContentType: "text",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.transcript.Append(userMsg)
	r.notify()

	r.setSending(true)
	defer r.setSending(false)

	var (
		botID int64
		full  strings.Builder
	)
	err := r.cfg.Client.Stream(ctx, sess.UserID, r.cfg.Profile.ConversationID, content,
		func() { r.setSending(false) },
		func(chunk string) {
			full.WriteString(chunk)
			if botID == 0 {
				botID = time.Now().UnixMilli()
				if botID == userMsg.ID {
					botID++
				}
				created := time.Now()
				r.transcript.Append(domain.Message{
					ID:          botID,
					Role:        domain.MessageRoleBot,
					Content:     full.String(),
					ContentType: "text",
					CreatedAt:   created,
					UpdatedAt:   created,
				})
			} else {
				r.transcript.ReplaceContent(botID, full.String())
			}
			r.notify()
		})
	if err != nil {
		if ctx.Err() != nil {
			// Aborted by the caller: keep whatever partial reply arrived.
			return
		}
		logger.Errorf("chat: stream failed: %v", err)
		errNow := time.Now()
		r.transcript.Append(domain.Message{
			ID:          errNow.UnixMilli() + 1,
			Role:        domain.MessageRoleBot,
			Content:     ErrorReplyText,
			ContentType: "text",
			CreatedAt:   errNow,
			UpdatedAt:   errNow,
		})
		r.notify()
		return
	}

	if r.cfg.Cache != nil {
		msgs := []domain.Message{userMsg}
		if bot, ok := r.transcript.LatestBot(); ok && bot.ID == botID {
			msgs = append(msgs, bot)
		}
		if err := r.cfg.Cache.PutMessages(r.cfg.Profile.ConversationID, msgs); err != nil {
			logger.Warnf("chat: caching messages failed: %v", err)
		}
	}
}

// LoadHistory fetches the newest history page.
func (r *Reducer) LoadHistory(ctx context.Context) error {
	return r.loadPage(ctx, 0)
}

// LoadOlder fetches the next older page, if any. Already rendered order is
// not disturbed; the page lands behind the existing transcript.
func (r *Reducer) LoadOlder(ctx context.Context) error {
	if !r.transcript.HasOlder() {
		return nil
	}
	return r.loadPage(ctx, r.transcript.NextPage())
}

func (r *Reducer) loadPage(ctx context.Context, page int) error {
	if _, ok := r.allowed(ctx); !ok {
		return nil
	}

	result, err := r.cfg.Client.Messages(ctx, r.cfg.Profile.ConversationID, page, r.cfg.PerPage)
	if err != nil {
		return err
	}
	r.transcript.AddPage(result)
	r.notify()

	if r.cfg.Cache != nil && len(result.Data) > 0 {
		if err := r.cfg.Cache.PutMessages(r.cfg.Profile.ConversationID, result.Data); err != nil {
			logger.Warnf("chat: caching history failed: %v", err)
		}
	}
	return nil
}

func (r *Reducer) notify() {
	if r.cfg.OnUpdate != nil {
		r.cfg.OnUpdate()
	}
}
