// Package importer loads event delegates from the registration CSV exports
// into the registry.
package importer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/models"
	"github.com/camden-git/eventmealsbackend/repository"
)

// CSV column headers.
const (
	colName           = "Delegate Name"
	colRegistrationID = "Delegate Reg ID"
	colUUID           = "UUID"
	colMembership     = "Membership"
	colClub           = "Club Name"
	colExtra          = "Extra Name"
)

const (
	SourceLunch = "lunch"
	SourceOther = "other"
)

// Delegate is one person aggregated across both exports.
type Delegate struct {
	FullName       string
	RegistrationID string
	ExternalUUID   string
	Membership     string
	Club           string
	Gender         models.Gender

	HasFridayLunch   bool
	HasSaturdayLunch bool
	HasBBQ           bool
	LunchSlots       int
	DinnerSlots      int

	Sources map[string]bool
}

// SplitName splits on the first space: "Mary Ann Banda" is ("Mary", "Ann Banda").
func (d Delegate) SplitName() (first, last string) {
	name := models.NormalizeName(d.FullName)
	first, last, _ = strings.Cut(name, " ")
	return first, last
}

// Person builds the registry row for the delegate. Lunch and dinner
// allowances come from the purchased slots; drinks start at the weekly default.
func (d Delegate) Person(now time.Time) models.Person {
	first, last := d.SplitName()
	return models.Person{
		FirstName:        first,
		LastName:         last,
		Gender:           d.Gender,
		RegistrationID:   optional(d.RegistrationID),
		ExternalUUID:     optional(d.ExternalUUID),
		Club:             optional(d.Club),
		Membership:       optional(d.Membership),
		HasFridayLunch:   d.HasFridayLunch,
		HasSaturdayLunch: d.HasSaturdayLunch,
		HasBBQ:           d.HasBBQ,
		LunchesRemaining: d.LunchSlots,
		DinnersRemaining: d.DinnerSlots,
		DrinksRemaining:  models.WeeklyDrinks,
		WeekStart:        now,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ParseEventRows reads the lunch/BBQ export and the other-registrations
// export. Rows are merged by UUID, then registration ID, then lowercased
// full name. Only lunch rows grant meal slots.
func ParseEventRows(lunch, other io.Reader) ([]*Delegate, error) {
	p := &parser{byKey: make(map[string]*Delegate)}
	if err := p.read(lunch, SourceLunch); err != nil {
		return nil, fmt.Errorf("lunch csv: %w", err)
	}
	if err := p.read(other, SourceOther); err != nil {
		return nil, fmt.Errorf("other csv: %w", err)
	}
	return p.ordered, nil
}

type parser struct {
	byKey   map[string]*Delegate
	ordered []*Delegate
}

func (p *parser) read(r io.Reader, source string) error {
	rows, err := newRowReader(r)
	if err != nil {
		return err
	}
	for {
		row, err := rows.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		d := p.merge(row, source)
		if d == nil || source != SourceLunch {
			continue
		}
		switch strings.ToLower(row[colExtra]) {
		case "friday lunch":
			d.HasFridayLunch = true
			d.LunchSlots++
		case "saturday lunch":
			d.HasSaturdayLunch = true
			d.LunchSlots++
		case "meat & greet bbq":
			d.HasBBQ = true
			d.DinnerSlots++
		}
	}
}

func (p *parser) merge(row map[string]string, source string) *Delegate {
	name := models.NormalizeName(row[colName])
	if name == "" {
		return nil
	}
	regID := normalizeRegistrationID(row[colRegistrationID])
	extID := normalizeUUID(row[colUUID])

	key := extID
	if key == "" {
		key = regID
	}
	if key == "" {
		key = strings.ToLower(name)
	}

	d, ok := p.byKey[key]
	if !ok {
		d = &Delegate{FullName: name, Gender: models.GenderUnknown, Sources: make(map[string]bool)}
		p.byKey[key] = d
		p.ordered = append(p.ordered, d)
	}

	d.RegistrationID = firstNonEmpty(d.RegistrationID, regID)
	d.ExternalUUID = firstNonEmpty(d.ExternalUUID, extID)
	d.Membership = firstNonEmpty(d.Membership, row[colMembership])
	d.Club = firstNonEmpty(d.Club, row[colClub])
	d.Sources[source] = true
	d.Gender = chooseGender(d.Gender, inferGender(row[colExtra]))
	return d
}

// normalizeRegistrationID drops the ".0" spreadsheet exports append to numeric IDs.
func normalizeRegistrationID(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), ".0")
}

// normalizeUUID canonicalizes well-formed UUIDs and keeps anything else as given.
func normalizeUUID(raw string) string {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return id.String()
	}
	return raw
}

// inferGender reads the merchandise choice on a row.
func inferGender(extra string) models.Gender {
	v := strings.ToLower(strings.TrimSpace(extra))
	switch {
	case strings.Contains(v, "female bag"), strings.Contains(v, "blouse"):
		return models.GenderFemale
	case strings.Contains(v, "male bag"), strings.Contains(v, "shirt"):
		return models.GenderMale
	}
	return models.GenderUnknown
}

// chooseGender merges hints; conflicting hints fall back to UNKNOWN.
func chooseGender(current, incoming models.Gender) models.Gender {
	switch {
	case incoming == models.GenderUnknown, current == incoming:
		return current
	case current == models.GenderUnknown:
		return incoming
	}
	return models.GenderUnknown
}

func firstNonEmpty(current, incoming string) string {
	if current != "" {
		return current
	}
	return strings.TrimSpace(incoming)
}

// Result summarizes an Apply run.
type Result struct {
	Created int   `json:"created"`
	Updated int   `json:"updated"`
	Skipped int   `json:"skipped"`
	Deleted int64 `json:"deleted"`
}

// Apply writes delegates into the registry in one transaction. With reset
// set, the registry is emptied first.
func Apply(ctx context.Context, db *gorm.DB, delegates []*Delegate, reset bool, now time.Time, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var result Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		people := repository.NewPersonRepository(tx)
		if reset {
			deleted, err := people.DeleteAll(ctx)
			if err != nil {
				return err
			}
			result.Deleted = deleted
		}

		for _, d := range delegates {
			person := d.Person(now)
			if person.FirstName == "" {
				result.Skipped++
				continue
			}
			outcome, err := people.Upsert(ctx, &person)
			if err != nil {
				return fmt.Errorf("failed to import %q: %w", d.FullName, err)
			}
			if outcome == repository.UpsertCreated {
				result.Created++
			} else {
				result.Updated++
			}
			logger.Debug("Imported delegate",
				zap.String("name", person.FullName()),
				zap.String("outcome", string(outcome)),
				zap.Uint("person_id", person.ID))
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}
