package assistant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/eventmealsbackend/apperrors"
	"github.com/camden-git/eventmealsbackend/llm"
	"github.com/camden-git/eventmealsbackend/models"
)

func newOrchestrator(f *fixture, completer llm.Completer) *Orchestrator {
	return NewOrchestrator(f.conversations, f.builder, completer)
}

func TestHandleTurn_FirstExchangeSetsTitle(t *testing.T) {
	f := newFixture(t)
	f.person(t, "Jane", "Doe")
	completer := &fakeCompleter{reply: "Jane has 3 lunches left.", title: "\"Jane Doe allowance check for the whole week\""}
	o := newOrchestrator(f, completer)

	result, err := o.HandleTurn(bg(), TurnRequest{Message: "  How is Jane Doe doing?  ", Owner: SessionOwner("abc")})
	require.NoError(t, err)
	assert.NotZero(t, result.ConversationID)
	assert.Equal(t, "Jane has 3 lunches left.", result.Reply)
	assert.Equal(t, "Jane Doe allowance check for the", result.Title)

	assert.Contains(t, completer.lastContext, `PERSON DETAILS (matched "jane doe")`)
	assert.Contains(t, completer.lastContext, "Requested by: Guest")
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "How is Jane Doe doing?"}}, completer.lastHistory)

	completer.reply = "She paid for all meals."
	second, err := o.HandleTurn(bg(), TurnRequest{ConversationID: &result.ConversationID, Message: "tell me more about her", Owner: SessionOwner("abc")})
	require.NoError(t, err)
	assert.Equal(t, result.Title, second.Title)
	assert.Equal(t, 1, completer.titleCalls)
	assert.Len(t, completer.lastHistory, 3)
	assert.Contains(t, completer.lastContext, `PERSON DETAILS (matched "jane doe")`)

	conv, err := o.History(bg(), result.ConversationID, SessionOwner("abc"))
	require.NoError(t, err)
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, models.RoleUser, conv.Messages[2].Role)
	assert.Equal(t, "She paid for all meals.", conv.Messages[3].Content)
}

func TestHandleTurn_TitleFallback(t *testing.T) {
	f := newFixture(t)
	completer := &fakeCompleter{reply: "ok", titleErr: errors.New("quota exceeded")}
	o := newOrchestrator(f, completer)

	result, err := o.HandleTurn(bg(), TurnRequest{
		Message: "\"Who still has dinners left for the closing banquet on Saturday night?\"\nThanks",
		Owner:   SessionOwner("abc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Who still has dinners left for the closing banque", result.Title)
}

func TestHandleTurn_EmptyModelTitle(t *testing.T) {
	f := newFixture(t)
	o := newOrchestrator(f, &fakeCompleter{reply: "ok", title: " \"\" "})

	result, err := o.HandleTurn(bg(), TurnRequest{Message: "hello", Owner: SessionOwner("abc")})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConversationTitle, result.Title)
}

func TestHandleTurn_CompletionFailure(t *testing.T) {
	f := newFixture(t)
	completer := &fakeCompleter{err: errors.New("upstream unavailable")}
	o := newOrchestrator(f, completer)

	result, err := o.HandleTurn(bg(), TurnRequest{Message: "How many drinks are left?", Owner: SessionOwner("abc")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExternal)
	assert.Empty(t, result.Reply)

	messages, err := f.conversations.ListMessages(bg(), result.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Zero(t, completer.titleCalls)

	conv, err := f.conversations.GetByID(bg(), result.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConversationTitle, conv.Title)
}

func TestHandleTurn_EmptyReplyFallback(t *testing.T) {
	f := newFixture(t)
	o := newOrchestrator(f, &fakeCompleter{reply: "  ", title: "Greeting"})

	result, err := o.HandleTurn(bg(), TurnRequest{Message: "hi", Owner: SessionOwner("abc")})
	require.NoError(t, err)
	assert.Equal(t, llm.EmptyReply, result.Reply)
}

func TestHandleTurn_RejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)
	o := newOrchestrator(f, &fakeCompleter{reply: "ok"})

	_, err := o.HandleTurn(bg(), TurnRequest{Message: " \n ", Owner: SessionOwner("abc")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.EqualError(t, err, "message is required")

	convs, err := o.ListConversations(bg(), SessionOwner("abc"))
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestHandleTurn_SystemMessagesNotReplayed(t *testing.T) {
	f := newFixture(t)
	completer := &fakeCompleter{reply: "ok", title: "Setup"}
	o := newOrchestrator(f, completer)

	result, err := o.HandleTurn(bg(), TurnRequest{Message: "hi", Owner: SessionOwner("abc")})
	require.NoError(t, err)
	require.NoError(t, f.conversations.AddMessage(bg(), &models.Message{ConversationID: result.ConversationID, Role: models.RoleSystem, Content: "internal note"}))

	_, err = o.HandleTurn(bg(), TurnRequest{ConversationID: &result.ConversationID, Message: "again", Owner: SessionOwner("abc")})
	require.NoError(t, err)
	for _, m := range completer.lastHistory {
		assert.NotEqual(t, string(models.RoleSystem), m.Role)
	}
	assert.Len(t, completer.lastHistory, 3)
}

func TestOwnership_SessionConversation(t *testing.T) {
	f := newFixture(t)
	o := newOrchestrator(f, &fakeCompleter{reply: "ok", title: "Chat"})

	result, err := o.HandleTurn(bg(), TurnRequest{Message: "hi", Owner: SessionOwner("abc")})
	require.NoError(t, err)
	id := result.ConversationID

	_, err = o.History(bg(), id, SessionOwner("xyz"))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = o.History(bg(), id, SessionOwner(""))
	assert.NoError(t, err)

	_, err = o.History(bg(), id, AdminOwner(7))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = o.HandleTurn(bg(), TurnRequest{ConversationID: &id, Message: "sneaky", Owner: SessionOwner("xyz")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	count, err := f.conversations.CountMessages(bg(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	missing := id + 100
	_, err = o.HandleTurn(bg(), TurnRequest{ConversationID: &missing, Message: "hi", Owner: SessionOwner("abc")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOwnership_AdminConversation(t *testing.T) {
	f := newFixture(t)
	o := newOrchestrator(f, &fakeCompleter{reply: "ok", title: "Chat"})

	result, err := o.HandleTurn(bg(), TurnRequest{Message: "hi", Owner: AdminOwner(1), UserName: "Alice"})
	require.NoError(t, err)
	id := result.ConversationID

	_, err = o.History(bg(), id, AdminOwner(1))
	assert.NoError(t, err)

	_, err = o.History(bg(), id, AdminOwner(2))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = o.History(bg(), id, SessionOwner("abc"))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = o.History(bg(), id, SessionOwner(""))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestListConversations(t *testing.T) {
	f := newFixture(t)
	o := newOrchestrator(f, &fakeCompleter{reply: "ok", title: "Chat"})

	for _, owner := range []Owner{SessionOwner("abc"), SessionOwner("abc"), SessionOwner("xyz"), AdminOwner(1)} {
		_, err := o.HandleTurn(bg(), TurnRequest{Message: "hi", Owner: owner})
		require.NoError(t, err)
	}

	mine, err := o.ListConversations(bg(), SessionOwner("abc"))
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	admin, err := o.ListConversations(bg(), AdminOwner(1))
	require.NoError(t, err)
	assert.Len(t, admin, 1)

	_, err = o.ListConversations(bg(), SessionOwner(" "))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.EqualError(t, err, "session_id query param is required")
}
