package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/azuradaemon/hati/internal/ai"
	"gorm.io/gorm"
)

type Service struct {
	repo              *Repo
	provider          ai.Provider
	persona           string
	contextWindowSize int
}

// NewService wires the conversation store to an upstream provider. persona
// is the system instruction prefixed to every completion request;
// contextWindowSize limits the history sent upstream, 0 meaning all of it.
func NewService(repo *Repo, provider ai.Provider, persona string, contextWindowSize int) *Service {
	if contextWindowSize < 0 {
		contextWindowSize = 0
	}
	return &Service{
		repo:              repo,
		provider:          provider,
		persona:           persona,
		contextWindowSize: contextWindowSize,
	}
}

func (s *Service) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	conv := &Conversation{Title: title}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Service) ListConversations(ctx context.Context) ([]Conversation, error) {
	return s.repo.ListConversations(ctx)
}

func (s *Service) GetConversation(ctx context.Context, id uint64) (*Conversation, []Message, error) {
	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

func (s *Service) DeleteConversation(ctx context.Context, id uint64) error {
	if err := s.repo.DeleteConversation(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) ensureConversation(ctx context.Context, id uint64) error {
	if _, err := s.repo.GetConversation(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// buildHistory assembles the upstream context: the persona instruction
// followed by the conversation's messages in creation order, optionally
// limited to the most recent window.
func (s *Service) buildHistory(ctx context.Context, conversationID uint64) ([]ai.Message, error) {
	var msgs []Message
	var err error
	if s.contextWindowSize > 0 {
		recentDesc, err2 := s.repo.ListRecentMessagesDesc(ctx, conversationID, s.contextWindowSize)
		if err2 != nil {
			return nil, err2
		}
		// reverse to ASC (oldest -> newest)
		msgs = make([]Message, 0, len(recentDesc))
		for i := len(recentDesc) - 1; i >= 0; i-- {
			msgs = append(msgs, recentDesc[i])
		}
	} else {
		msgs, err = s.repo.ListMessages(ctx, conversationID)
		if err != nil {
			return nil, err
		}
	}

	out := make([]ai.Message, 0, len(msgs)+1)
	out = append(out, ai.Message{Role: "system", Content: s.persona})
	for _, m := range msgs {
		out = append(out, ai.Message{Role: m.Role, Content: m.Content})
	}
	return out, nil
}

// SendMessage is the synchronous path: store the user message, complete,
// store the assistant message.
func (s *Service) SendMessage(ctx context.Context, conversationID uint64, content string) (string, uint64, error) {
	if strings.TrimSpace(content) == "" {
		return "", 0, ErrEmptyMessage
	}
	if err := s.ensureConversation(ctx, conversationID); err != nil {
		return "", 0, err
	}

	userMsg := &Message{ConversationID: conversationID, Role: "user", Content: content}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		return "", 0, err
	}

	history, err := s.buildHistory(ctx, conversationID)
	if err != nil {
		return "", 0, err
	}

	reply, err := s.provider.Chat(ctx, history)
	if err != nil {
		return "", 0, err
	}

	assistantMsg := &Message{ConversationID: conversationID, Role: "assistant", Content: reply}
	if err := s.repo.InsertMessage(ctx, assistantMsg); err != nil {
		return "", 0, err
	}
	return reply, assistantMsg.ID, nil
}

// SendMessageStream stores the user message immediately, streams assistant
// chunks, and persists the assembled assistant message exactly once when
// the upstream stream ends.
//
// Channel contract: chunks carries incremental units in upstream order and
// closes when streaming stops. On success a value arrives on assistantMsgID
// and then on done; on failure a single error arrives on errs instead and
// done never fires. If the caller's ctx is cancelled mid-stream, the
// upstream request is aborted and the partial accumulation is still
// persisted (under a detached context) so the text is not silently lost.
func (s *Service) SendMessageStream(ctx context.Context, conversationID uint64, content string) (chunks <-chan string, done <-chan struct{}, assistantMsgID <-chan uint64, errs <-chan error) {
	outChunks := make(chan string, 16)
	outDone := make(chan struct{}, 1)
	outMsgID := make(chan uint64, 1)
	outErrs := make(chan error, 1)

	go func() {
		defer close(outChunks)
		defer close(outErrs)
		defer close(outMsgID)

		if strings.TrimSpace(content) == "" {
			outErrs <- ErrEmptyMessage
			return
		}

		// 1) conversation must exist before any side effect
		if err := s.ensureConversation(ctx, conversationID); err != nil {
			outErrs <- err
			return
		}

		// 2) persist the user message before contacting the provider
		userMsg := &Message{ConversationID: conversationID, Role: "user", Content: content}
		if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
			outErrs <- err
			return
		}

		// 3) persona + ordered history as upstream context
		history, err := s.buildHistory(ctx, conversationID)
		if err != nil {
			outErrs <- err
			return
		}

		sp, ok := s.provider.(ai.StreamProvider)
		if !ok {
			outErrs <- errors.New("provider does not support streaming")
			return
		}

		// 4) forward each unit in order while accumulating
		pChunks, pErrs := sp.StreamChat(ctx, history)

		var b strings.Builder
		forwarding := true
		for c := range pChunks {
			b.WriteString(c)
			if !forwarding {
				continue
			}
			select {
			case outChunks <- c:
			case <-ctx.Done():
				// caller is gone; keep draining so the buffer stays
				// complete up to the abort point
				forwarding = false
			}
		}

		// pErrs is closed (possibly after one buffered error) once pChunks
		// closes, so this receive never blocks for long
		upstreamErr := <-pErrs

		if ctx.Err() != nil {
			// client disconnect: abort cleanly, persist what arrived
			if b.Len() > 0 {
				dctx := context.WithoutCancel(ctx)
				_ = s.repo.InsertMessage(dctx, &Message{
					ConversationID: conversationID,
					Role:           "assistant",
					Content:        b.String(),
				})
			}
			return
		}

		if upstreamErr != nil {
			// partial text is not durable on upstream failure
			outErrs <- upstreamErr
			return
		}

		// 5) seal exactly one assistant message
		assistantMsg := &Message{
			ConversationID: conversationID,
			Role:           "assistant",
			Content:        b.String(),
		}
		if err := s.repo.InsertMessage(ctx, assistantMsg); err != nil {
			outErrs <- err
			return
		}

		outMsgID <- assistantMsg.ID
		outDone <- struct{}{}
	}()

	return outChunks, outDone, outMsgID, outErrs
}

// InsertUserMessage persists a user message without generating a reply;
// the async job pipeline pairs it with a worker-generated assistant turn.
func (s *Service) InsertUserMessage(ctx context.Context, conversationID uint64, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	if err := s.ensureConversation(ctx, conversationID); err != nil {
		return err
	}
	return s.repo.InsertMessage(ctx, &Message{
		ConversationID: conversationID,
		Role:           "user",
		Content:        content,
	})
}

// GenerateAssistantReplyAndInsert completes against the stored history and
// appends the assistant message. Used by the worker, whose jobs already
// carry the persisted user message.
func (s *Service) GenerateAssistantReplyAndInsert(ctx context.Context, conversationID uint64) (string, uint64, error) {
	if err := s.ensureConversation(ctx, conversationID); err != nil {
		return "", 0, err
	}

	history, err := s.buildHistory(ctx, conversationID)
	if err != nil {
		return "", 0, err
	}

	reply, err := s.provider.Chat(ctx, history)
	if err != nil {
		return "", 0, err
	}

	assistantMsg := &Message{ConversationID: conversationID, Role: "assistant", Content: reply}
	if err := s.repo.InsertMessage(ctx, assistantMsg); err != nil {
		return "", 0, err
	}
	return reply, assistantMsg.ID, nil
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByID(ctx, jobID)
}

func (s *Service) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	return s.repo.CreateJobOrGetExisting(ctx, job)
}
