package devserver

import (
	"context"
	"errors"
	"io"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fitpulse/companion/internal/config"
)

// Responder produces the coach's reply as a sequence of chunks.
type Responder interface {
	Reply(ctx context.Context, message string, emit func(chunk string) error) error
}

// newResponder picks the OpenAI-backed coach when a key is configured and
// the canned coach otherwise.
func newResponder(cfg config.DevConfig) Responder {
	if cfg.OpenAIAPIKey != "" {
		return &openaiResponder{
			client: openai.NewClient(cfg.OpenAIAPIKey),
			model:  cfg.OpenAIModel,
		}
	}
	return &cannedResponder{}
}

const coachChunkSize = 12

var cannedReplies = []string{
	"Great question! Let's start with three sessions a week and build from there.\n<<Show beginner plan>>\n<<I train already>>",
	"Recovery matters as much as the workout. Aim for 7-8 hours of sleep tonight.\n<<Log my sleep>>\n<<Next tip>>",
	"Protein within an hour of training helps. Your meal plan has two quick options.\n<<Open meal plan>>\n<<Remind me later>>",
}

// cannedResponder cycles through fixed coach replies, emitted in small
// chunks so the streaming path behaves like the real platform.
type cannedResponder struct {
	mu   sync.Mutex
	turn int
}

func (r *cannedResponder) Reply(ctx context.Context, _ string, emit func(string) error) error {
	r.mu.Lock()
	reply := cannedReplies[r.turn%len(cannedReplies)]
	r.turn++
	r.mu.Unlock()

	runes := []rune(reply)
	for start := 0; start < len(runes); start += coachChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + coachChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if err := emit(string(runes[start:end])); err != nil {
			return err
		}
	}
	return nil
}

// openaiResponder relays the reply from an OpenAI-compatible model.
type openaiResponder struct {
	client *openai.Client
	model  string
}

func (r *openaiResponder) Reply(ctx context.Context, message string, emit func(string) error) error {
	stream, err := r.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a concise, encouraging fitness coach."},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Stream: true,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			if err := emit(content); err != nil {
				return err
			}
		}
	}
}
