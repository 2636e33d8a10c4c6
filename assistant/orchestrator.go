package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/llm"
	"github.com/camden-git/eventmealsbackend/metrics"
	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
)

const (
	maxListedConversations = 20
	maxTitleWords          = 6
	maxFallbackTitleRunes  = 50
	guestName              = "Guest"
	titleQuotes            = "\"'“”‘’`"
)

// Owner identifies who is talking: an authenticated admin or an anonymous
// client session. An anonymous owner may have no session key.
type Owner struct {
	AdminID    *uint
	SessionKey string
}

func AdminOwner(id uint) Owner {
	return Owner{AdminID: &id}
}

func SessionOwner(key string) Owner {
	return Owner{SessionKey: strings.TrimSpace(key)}
}

// TurnRequest is one inbound message. A nil ConversationID starts a new
// conversation. UserName is how the assistant addresses the caller.
type TurnRequest struct {
	ConversationID *uint
	Message        string
	Owner          Owner
	UserName       string
}

type TurnResult struct {
	ConversationID uint
	Title          string
	Reply          string
}

// ContextSource builds the data context for a turn.
type ContextSource interface {
	Build(ctx context.Context, adminName, message string, history []llm.Message) (string, error)
}

// Orchestrator runs assistant turns and serves conversation reads.
type Orchestrator struct {
	conversations repository.ConversationRepositoryInterface
	context       ContextSource
	completer     llm.Completer
	systemPrompt  string
	logger        *zap.Logger
	metrics       *metrics.Recorder
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) { o.systemPrompt = prompt }
}

func WithLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithMetrics(recorder *metrics.Recorder) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = recorder }
}

func NewOrchestrator(conversations repository.ConversationRepositoryInterface, source ContextSource, completer llm.Completer, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		conversations: conversations,
		context:       source,
		completer:     completer,
		systemPrompt:  llm.DefaultSystemPrompt,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleTurn stores the message, asks the model for a reply with the data
// context attached, stores the reply and titles the conversation after its
// first exchange. When the model call fails the user message stays stored,
// no reply is written and the error is returned.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return TurnResult{}, apperrors.Invalid("", "message is required")
	}

	conv, err := o.openConversation(ctx, req)
	if err != nil {
		return TurnResult{}, err
	}
	result := TurnResult{ConversationID: conv.ID, Title: conv.Title}

	if err := o.conversations.AddMessage(ctx, &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        message,
	}); err != nil {
		return result, err
	}

	stored, err := o.conversations.ListMessages(ctx, conv.ID)
	if err != nil {
		return result, err
	}
	history := toHistory(stored)

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = guestName
	}
	block, err := o.context.Build(ctx, name, message, history)
	if err != nil {
		return result, fmt.Errorf("failed to build assistant context: %w", err)
	}

	start := time.Now()
	reply, err := o.completer.Complete(ctx, o.systemPrompt, block, history)
	o.metrics.Completion(time.Since(start), err)
	if err != nil {
		o.logger.Error("Completion failed", zap.Uint("conversation_id", conv.ID), zap.Error(err))
		return result, apperrors.External("completion", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = llm.EmptyReply
	}

	if err := o.conversations.AddMessage(ctx, &models.Message{
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        reply,
	}); err != nil {
		return result, err
	}
	result.Reply = reply

	count, err := o.conversations.CountMessages(ctx, conv.ID)
	if err != nil {
		return result, err
	}
	if count == 2 {
		title := o.title(ctx, message)
		if err := o.conversations.UpdateTitle(ctx, conv.ID, title); err != nil {
			return result, err
		}
		result.Title = title
	}
	if err := o.conversations.Touch(ctx, conv.ID); err != nil {
		o.logger.Warn("Failed to touch conversation", zap.Uint("conversation_id", conv.ID), zap.Error(err))
	}
	return result, nil
}

// History returns a conversation with its messages in creation order.
func (o *Orchestrator) History(ctx context.Context, id uint, owner Owner) (*models.Conversation, error) {
	conv, err := o.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(conv, owner); err != nil {
		return nil, err
	}
	messages, err := o.conversations.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Messages = messages
	return conv, nil
}

// ListConversations returns the owner's most recently updated conversations.
func (o *Orchestrator) ListConversations(ctx context.Context, owner Owner) ([]models.Conversation, error) {
	if owner.AdminID != nil {
		return o.conversations.ListForAdmin(ctx, *owner.AdminID, maxListedConversations)
	}
	if owner.SessionKey == "" {
		return nil, apperrors.Invalid("", "session_id query param is required")
	}
	return o.conversations.ListForSession(ctx, owner.SessionKey, maxListedConversations)
}

func (o *Orchestrator) openConversation(ctx context.Context, req TurnRequest) (*models.Conversation, error) {
	if req.ConversationID != nil {
		conv, err := o.conversations.GetByID(ctx, *req.ConversationID)
		if err != nil {
			return nil, err
		}
		if err := authorize(conv, req.Owner); err != nil {
			return nil, err
		}
		return conv, nil
	}

	conv := &models.Conversation{Title: models.DefaultConversationTitle, AdminID: req.Owner.AdminID}
	if req.Owner.AdminID == nil && req.Owner.SessionKey != "" {
		key := req.Owner.SessionKey
		conv.SessionKey = &key
	}
	if err := o.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// authorize enforces ownership. Admin conversations are invisible to other
// admins and closed to anonymous callers. A session conversation rejects a
// caller presenting a different session key.
func authorize(conv *models.Conversation, owner Owner) error {
	notFound := apperrors.NotFound("conversation", fmt.Sprint(conv.ID))
	if conv.AdminID != nil {
		if owner.AdminID == nil {
			return apperrors.Forbidden("conversation belongs to an admin")
		}
		if *owner.AdminID != *conv.AdminID {
			return notFound
		}
		return nil
	}
	if owner.AdminID != nil {
		return notFound
	}
	if owner.SessionKey != "" && (conv.SessionKey == nil || *conv.SessionKey != owner.SessionKey) {
		return apperrors.Forbidden("conversation does not belong to this session")
	}
	return nil
}

func toHistory(messages []models.Message) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			continue
		}
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return history
}

// title asks the model for a short title, falling back to the first line of
// the message.
func (o *Orchestrator) title(ctx context.Context, firstMessage string) string {
	raw, err := o.completer.Title(ctx, firstMessage)
	title := cleanTitle(raw)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			o.logger.Warn("Title generation failed, using message text", zap.Error(err))
		}
		title = strings.TrimSpace(strings.Trim(fallbackTitle(firstMessage), titleQuotes))
	}
	if title == "" {
		return models.DefaultConversationTitle
	}
	return title
}

// cleanTitle strips surrounding quotes and keeps at most six words.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(strings.Trim(title, titleQuotes))
	fields := strings.Fields(title)
	if len(fields) > maxTitleWords {
		fields = fields[:maxTitleWords]
	}
	return strings.Join(fields, " ")
}

func fallbackTitle(message string) string {
	line := strings.TrimSpace(message)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if utf8.RuneCountInString(line) > maxFallbackTitleRunes {
		line = string([]rune(line)[:maxFallbackTitleRunes])
	}
	return strings.TrimSpace(line)
}
