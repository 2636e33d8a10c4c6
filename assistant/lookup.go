package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/camden-git/eventmealsbackend/cache"
	"github.com/camden-git/eventmealsbackend/models"
)

const (
	// MaxLookupResults caps how many people a single lookup returns.
	MaxLookupResults = 10
	lookupPoolSize   = 50
	lookupKeyPrefix  = "lookup:"
	minSingleToken   = 3

	DefaultLookupTTL = time.Minute
)

// PersonSearcher is the slice of the person repository the lookup needs.
type PersonSearcher interface {
	GetByIDs(ctx context.Context, ids []uint) ([]models.Person, error)
	FindByName(ctx context.Context, firstName, lastName string) ([]models.Person, error)
	SearchFirstLast(ctx context.Context, firstPart, lastPart string, limit int) ([]models.Person, error)
	SearchAnyName(ctx context.Context, token string, limit int) ([]models.Person, error)
}

// Lookup finds people in the registry from free text.
type Lookup struct {
	people PersonSearcher
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// LookupOption configures a Lookup
type LookupOption func(*Lookup)

// WithLookupCache remembers matched IDs per candidate for ttl.
func WithLookupCache(c cache.Cache, ttl time.Duration) LookupOption {
	return func(l *Lookup) {
		l.cache = c
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithLookupLogger(logger *zap.Logger) LookupOption {
	return func(l *Lookup) { l.logger = logger }
}

func NewLookup(people PersonSearcher, opts ...LookupOption) *Lookup {
	l := &Lookup{people: people, ttl: DefaultLookupTTL, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Find returns up to MaxLookupResults people matching candidate, best match first.
//
// Three or more tokens match the first token against first names and the last
// token against last names. Two tokens try an exact first/last match before
// falling back to substring matching on both. A single token matches either name.
func (l *Lookup) Find(ctx context.Context, candidate string) ([]models.Person, error) {
	tokens := words(candidate)
	if len(tokens) == 0 {
		return nil, nil
	}
	normalized := strings.Join(tokens, " ")
	key := lookupKeyPrefix + normalized

	if l.cache != nil {
		var ids []uint
		found, err := cache.GetJSON(ctx, l.cache, key, &ids)
		if err != nil {
			l.logger.Warn("Lookup cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return l.load(ctx, ids)
		}
	}

	people, err := l.search(ctx, tokens)
	if err != nil {
		return nil, err
	}
	people = rank(normalized, people)
	if len(people) > MaxLookupResults {
		people = people[:MaxLookupResults]
	}

	if l.cache != nil {
		ids := make([]uint, len(people))
		for i, p := range people {
			ids[i] = p.ID
		}
		if err := cache.SetJSON(ctx, l.cache, key, ids, l.ttl); err != nil {
			l.logger.Warn("Lookup cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return people, nil
}

// Resolve escalates through candidates built from tokens: the whole string,
// then the first and last token as a name pair, then each adjacent pair, then
// each token of three or more characters on its own. Every token is
// considered, so a name late in a long message is still found. It returns the
// first non-empty match and the candidate that produced it.
func (l *Lookup) Resolve(ctx context.Context, tokens []string) ([]models.Person, string, error) {
	if len(tokens) == 0 {
		return nil, "", nil
	}

	tried := make(map[string]bool)
	attempt := func(candidate string) ([]models.Person, error) {
		if tried[candidate] {
			return nil, nil
		}
		tried[candidate] = true
		return l.Find(ctx, candidate)
	}

	var candidates []string
	// a lone short token is most likely an initial
	if len(tokens) > 1 || len(tokens[0]) >= minSingleToken {
		candidates = append(candidates, strings.Join(tokens, " "))
	}
	if len(tokens) >= 2 {
		candidates = append(candidates, tokens[0]+" "+tokens[len(tokens)-1])
		for i := 0; i+1 < len(tokens); i++ {
			candidates = append(candidates, tokens[i]+" "+tokens[i+1])
		}
	}
	for _, t := range tokens {
		if len(t) >= minSingleToken {
			candidates = append(candidates, t)
		}
	}

	for _, candidate := range candidates {
		people, err := attempt(candidate)
		if err != nil {
			return nil, "", err
		}
		if len(people) > 0 {
			return people, candidate, nil
		}
	}
	return nil, "", nil
}

// Invalidate drops every cached lookup, after the registry changes.
func (l *Lookup) Invalidate(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.DeletePrefix(ctx, lookupKeyPrefix)
}

func (l *Lookup) search(ctx context.Context, tokens []string) ([]models.Person, error) {
	switch {
	case len(tokens) >= 3:
		people, err := l.people.SearchFirstLast(ctx, tokens[0], tokens[len(tokens)-1], lookupPoolSize)
		if err != nil {
			return nil, fmt.Errorf("lookup by first and last token: %w", err)
		}
		return people, nil
	case len(tokens) == 2:
		people, err := l.people.FindByName(ctx, tokens[0], tokens[1])
		if err != nil {
			return nil, fmt.Errorf("lookup by exact name: %w", err)
		}
		if len(people) > 0 {
			return people, nil
		}
		people, err = l.people.SearchFirstLast(ctx, tokens[0], tokens[1], lookupPoolSize)
		if err != nil {
			return nil, fmt.Errorf("lookup by partial name: %w", err)
		}
		return people, nil
	default:
		people, err := l.people.SearchAnyName(ctx, tokens[0], lookupPoolSize)
		if err != nil {
			return nil, fmt.Errorf("lookup by single name: %w", err)
		}
		return people, nil
	}
}

// load re-reads cached IDs so allowance counters are always current, keeping
// the cached order and skipping people deleted since.
func (l *Lookup) load(ctx context.Context, ids []uint) ([]models.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	people, err := l.people.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cached lookup: %w", err)
	}
	byID := make(map[uint]models.Person, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}
	ordered := make([]models.Person, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// rank puts exact full-name matches first, then fuzzy matches by score, then
// everything else in the order the store returned it.
func rank(candidate string, people []models.Person) []models.Person {
	if len(people) < 2 {
		return people
	}
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = strings.ToLower(p.FullName())
	}

	scores := make(map[int]int, len(people))
	for _, m := range fuzzy.Find(candidate, names) {
		scores[m.Index] = m.Score
	}

	order := make([]int, len(people))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		exactA, exactB := names[ia] == candidate, names[ib] == candidate
		if exactA != exactB {
			return exactA
		}
		scoreA, matchedA := scores[ia]
		scoreB, matchedB := scores[ib]
		if matchedA != matchedB {
			return matchedA
		}
		return scoreA > scoreB
	})

	ranked := make([]models.Person, len(people))
	for i, idx := range order {
		ranked[i] = people[idx]
	}
	return ranked
}
