// Package assistant answers admin questions about the event. It decides which
// operational data a question needs, resolves the people it mentions and
// assembles the context block handed to the completion model.
package assistant

import (
	"context"
	"strings"

	"github.com/camden-git/eventmealsbackend/llm"
)

const (
	// FollowUpLookback is how many earlier user messages a follow-up may
	// borrow a person from.
	FollowUpLookback = 5
)

// Intent is what a message asks about.
type Intent struct {
	NeedsStats        bool
	NeedsUserList     bool
	NeedsSpecificUser bool
	NeedsDrinks       bool
	NeedsTransactions bool
	NeedsMealLogs     bool

	// NameSearched is set when the message carried name words and the
	// registry was searched for them, whether or not anyone matched.
	NameSearched bool
	PersonName   string
	PersonIDs    []uint
	// FromHistory marks a person borrowed from an earlier message.
	FromHistory bool
}

// Matched reports whether any person was resolved.
func (i Intent) Matched() bool {
	return len(i.PersonIDs) > 0
}

// Classifier turns a message into an Intent.
type Classifier struct {
	lookup *Lookup
}

func NewClassifier(lookup *Lookup) *Classifier {
	return &Classifier{lookup: lookup}
}

// Classify looks only at message.
func (c *Classifier) Classify(ctx context.Context, message string) (Intent, error) {
	lower := strings.ToLower(message)
	intent := Intent{
		NeedsStats:        containsAny(lower, statsKeywords),
		NeedsUserList:     containsAny(lower, userListKeywords),
		NeedsSpecificUser: containsAny(lower, personTriggers),
		NeedsDrinks:       containsAny(lower, drinkKeywords),
		NeedsTransactions: containsAny(lower, transactionKeywords),
		NeedsMealLogs:     containsAny(lower, mealKeywords),
	}

	tokens := nameTokens(message)
	if len(tokens) == 0 {
		return intent, nil
	}

	intent.NameSearched = true
	people, name, err := c.lookup.Resolve(ctx, tokens)
	if err != nil {
		return intent, err
	}
	if len(people) == 0 {
		return intent, nil
	}

	intent.NeedsSpecificUser = true
	intent.PersonName = name
	intent.PersonIDs = make([]uint, len(people))
	for i, p := range people {
		intent.PersonIDs[i] = p.ID
	}
	return intent, nil
}

// ClassifyWithHistory classifies message and, when it names nobody but reads
// like a follow-up ("tell me more about them"), borrows the person from the
// most recent earlier user message that resolves to one. Earlier messages are
// classified with Classify, so resolution never goes more than one level deep.
func (c *Classifier) ClassifyWithHistory(ctx context.Context, message string, history []llm.Message) (Intent, error) {
	intent, err := c.Classify(ctx, message)
	if err != nil || intent.Matched() || len(history) == 0 || !hasFollowUpCue(message) {
		return intent, err
	}

	for _, prior := range priorUserMessages(history, message) {
		previous, err := c.Classify(ctx, prior)
		if err != nil {
			return intent, err
		}
		if !previous.Matched() {
			continue
		}
		intent.NeedsSpecificUser = true
		intent.PersonName = previous.PersonName
		intent.PersonIDs = previous.PersonIDs
		intent.FromHistory = true
		break
	}
	return intent, nil
}

// priorUserMessages returns up to FollowUpLookback user messages, newest first.
// A trailing user entry equal to current is the current message itself and is
// skipped.
func priorUserMessages(history []llm.Message, current string) []string {
	end := len(history)
	if end > 0 {
		last := history[end-1]
		if last.Role == llm.RoleUser && strings.TrimSpace(last.Content) == strings.TrimSpace(current) {
			end--
		}
	}

	var prior []string
	for i := end - 1; i >= 0 && len(prior) < FollowUpLookback; i-- {
		if history[i].Role != llm.RoleUser {
			continue
		}
		prior = append(prior, history[i].Content)
	}
	return prior
}
