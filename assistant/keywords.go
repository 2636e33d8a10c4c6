package assistant

import "strings"

// Substring cues for each data area. Matching is done on the lowercased message.
var (
	statsKeywords = []string{
		"stat", "how many", "total", "count", "summary", "overview", "registration",
		"registered", "numbers", "breakdown", "paid for",
	}
	userListKeywords = []string{
		"users", "people", "attendees", "delegates", "everyone", "list", "members",
		"who has", "who paid", "who hasn't", "registrants",
	}
	drinkKeywords = []string{
		"drink", "beverage", "soda", "stock", "inventory", "bar", "cola", "water",
		"juice", "beer", "wine", "supply", "running low", "low on",
	}
	transactionKeywords = []string{
		"transaction", "order", "pending", "approve", "approval", "denied", "deny",
		"request", "served", "serving point",
	}
	mealKeywords = []string{
		"meal", "lunch", "dinner", "bbq", "barbecue", "eaten", "food",
		"consum", "log", "breakfast",
	}
	// person-oriented verbs: the question is about specific people even when
	// no name can be resolved
	personTriggers = []string{
		"pay", "find", "who is", "who's", "look up", "lookup", "search for", "allowance",
		"remaining", "left for", "status of", "profile", "details for", "details on",
		"how is", "how's", "tell me about", "check on",
	}
)

// Follow-up cues: pronouns match whole words, phrases match anywhere.
var (
	followUpPronouns = map[string]bool{
		"them": true, "they": true, "him": true, "her": true,
		"he": true, "she": true, "his": true, "their": true,
	}
	followUpPhrases = []string{
		"tell me more", "what about", "how about", "more about", "more on", "and what",
		"same person", "that person",
	}
)

// stopWords are dropped before the remaining words are treated as a name.
var stopWords = toSet(
	"a", "about", "after", "all", "allowance", "allowances", "am", "an", "and", "any", "anyone",
	"are", "as", "at", "be", "been", "before", "both", "but", "by", "can", "check", "could",
	"day", "days", "detail", "details", "did", "do", "does", "doing", "done", "each", "eat",
	"event", "events", "for", "from", "get", "give", "got", "had", "has", "have", "having",
	"he", "her", "here", "him", "his", "how", "i", "if", "in", "info", "information", "is",
	"it", "its", "just", "know", "last", "left", "let", "like", "look", "lunches", "dinners",
	"drinks", "many", "me", "more", "much", "my", "need", "no", "not", "now", "of", "on",
	"one", "or", "our", "paid", "pay", "payment", "person", "please", "profile", "remaining",
	"same", "search", "see", "she", "should", "show", "so", "some", "status", "still", "tell",
	"than", "thanks", "that", "the", "their", "them", "then", "there", "these", "they",
	"this", "those", "to", "today", "tomorrow", "up", "us", "user", "was", "we", "week",
	"were", "what", "whats", "when", "where", "which", "who", "whos", "whom", "why", "will",
	"with", "would", "yes", "yesterday", "you", "your", "hi", "hello", "hey", "ok", "okay",
	"find", "lookup", "mr", "mrs", "ms", "dr", "friday", "saturday", "sunday", "monday",
	"tuesday", "wednesday", "thursday", "registered", "attendee", "delegate", "name", "named",
	// domain nouns
	"meal", "meals", "lunch", "dinner", "drink", "bbq", "barbecue", "food", "ate", "eaten",
	"order", "orders", "ordered", "transaction", "transactions", "pending", "approve", "approved",
	"approval", "approvals", "denied", "deny", "request", "requests", "stock", "inventory",
	"beverage", "beverages", "soda", "bar", "log", "logs", "consumed", "consumption", "served",
	"serving", "point", "stats", "statistics", "total", "count", "summary", "overview",
	"registration", "registrations", "users", "people", "attendees", "delegates", "everyone",
	"list", "members", "member", "registrants", "club", "membership", "balance", "breakdown",
	"numbers", "number", "access", "allowed", "eligible", "week's", "weekly",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

// words splits text into lowercase words made of letters, digits, apostrophes
// and hyphens.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == '-':
			return false
		case r > 127:
			return false
		}
		return true
	})
}

// nameTokens keeps the words that could be part of a person's name.
func nameTokens(message string) []string {
	var tokens []string
	for _, w := range words(message) {
		w = strings.Trim(w, "'-")
		if strings.HasSuffix(w, "'s") {
			w = strings.TrimSuffix(w, "'s")
		}
		if len(w) < 2 || stopWords[w] || followUpPronouns[w] {
			continue
		}
		if w[0] >= '0' && w[0] <= '9' {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func hasFollowUpCue(message string) bool {
	lower := strings.ToLower(message)
	if containsAny(lower, followUpPhrases) {
		return true
	}
	for _, w := range words(lower) {
		if followUpPronouns[strings.Trim(w, "'-")] {
			return true
		}
	}
	return false
}
