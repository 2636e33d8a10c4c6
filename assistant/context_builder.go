package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/facette/natsort"

	"github.com/camden-git/eventmealsbackend/database"
	"github.com/camden-git/eventmealsbackend/llm"
	"github.com/camden-git/eventmealsbackend/models"
)

// Section bounds.
const (
	maxPendingOrders  = 15
	maxRecentOrders   = 20
	maxListedPeople   = 50
	maxMealLogEntries = 20
)

const timestampLayout = "2006-01-02 15:04"

type PersonReader interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, limit int) ([]models.Person, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Person, error)
}

type DrinkLister interface {
	List(ctx context.Context) ([]models.DrinkType, error)
}

type OrderReader interface {
	ListPending(ctx context.Context, limit int) ([]models.DrinkOrder, error)
	ListRecent(ctx context.Context, limit int) ([]models.DrinkOrder, error)
	CountPending(ctx context.Context) (int64, error)
}

type ConsumptionReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.ConsumptionRecord, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// StatsReader runs the aggregate queries.
type StatsReader interface {
	RegistrationTallies(ctx context.Context) (database.RegistrationTallies, error)
	MealTalliesSince(ctx context.Context, since time.Time) (map[models.MealKind]int64, error)
	OrderCountsSince(ctx context.Context, status models.OrderStatus, since time.Time) (int64, error)
}

// Sources are the stores the context is read from.
type Sources struct {
	People      PersonReader
	Drinks      DrinkLister
	Orders      OrderReader
	Consumption ConsumptionReader
	Stats       StatsReader
}

// ContextBuilder renders the data context for one assistant turn.
type ContextBuilder struct {
	src        Sources
	classifier *Classifier
	now        func() time.Time
}

// NewContextBuilder returns a builder reading from src. now may be nil.
func NewContextBuilder(src Sources, classifier *Classifier, now func() time.Time) *ContextBuilder {
	if now == nil {
		now = time.Now
	}
	return &ContextBuilder{src: src, classifier: classifier, now: now}
}

// Build classifies message against history and renders the matching context.
func (b *ContextBuilder) Build(ctx context.Context, adminName, message string, history []llm.Message) (string, error) {
	intent, err := b.classifier.ClassifyWithHistory(ctx, message, history)
	if err != nil {
		return "", fmt.Errorf("classify message: %w", err)
	}
	return b.Render(ctx, adminName, intent)
}

// Render writes the header and overview, the sections intent asks for in a
// fixed order, and the capabilities footer.
func (b *ContextBuilder) Render(ctx context.Context, adminName string, intent Intent) (string, error) {
	now := b.now()
	today := startOfDay(now)
	if strings.TrimSpace(adminName) == "" {
		adminName = "Guest"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SYSTEM DATA SNAPSHOT (Generated: %s, %s)\n", now.Format("2006-01-02 15:04:05"), now.Weekday())
	fmt.Fprintf(&sb, "Requested by: %s\n", adminName)

	if err := b.writeOverview(ctx, &sb, today); err != nil {
		return "", err
	}

	sections := []struct {
		needed bool
		write  func(context.Context, *strings.Builder, time.Time) error
	}{
		{intent.NeedsStats || intent.NeedsMealLogs, b.writeRegistration},
		{intent.NeedsDrinks, b.writeInventory},
		{intent.NeedsTransactions, b.writeTransactions},
		{intent.NeedsUserList || intent.NeedsSpecificUser, func(ctx context.Context, sb *strings.Builder, _ time.Time) error {
			return b.writePeople(ctx, sb, intent)
		}},
		{intent.NeedsMealLogs, b.writeMealLog},
	}
	for _, s := range sections {
		if !s.needed {
			continue
		}
		if err := s.write(ctx, &sb, today); err != nil {
			return "", err
		}
	}

	writeFooter(&sb, adminName)
	return sb.String(), nil
}

func (b *ContextBuilder) writeOverview(ctx context.Context, sb *strings.Builder, today time.Time) error {
	people, err := b.src.People.Count(ctx)
	if err != nil {
		return fmt.Errorf("count people: %w", err)
	}
	consumed, err := b.src.Consumption.CountSince(ctx, today)
	if err != nil {
		return fmt.Errorf("count today's consumption: %w", err)
	}
	sb.WriteString("\n=== OVERVIEW ===\n")
	fmt.Fprintf(sb, "- Total registered people: %d\n", people)
	fmt.Fprintf(sb, "- Consumptions recorded today: %d\n", consumed)
	return nil
}

func (b *ContextBuilder) writeRegistration(ctx context.Context, sb *strings.Builder, _ time.Time) error {
	t, err := b.src.Stats.RegistrationTallies(ctx)
	if err != nil {
		return fmt.Errorf("registration tallies: %w", err)
	}
	sb.WriteString("\n=== REGISTRATION BREAKDOWN ===\n")
	fmt.Fprintf(sb, "- Registered: %d\n", t.Total)
	fmt.Fprintf(sb, "- Paid for Friday lunch: %d\n", t.FridayLunch)
	fmt.Fprintf(sb, "- Paid for Saturday lunch: %d\n", t.SaturdayLunch)
	fmt.Fprintf(sb, "- Paid for BBQ dinner: %d\n", t.BBQ)
	fmt.Fprintf(sb, "- All meals access: %d\n", t.AllMeals)
	fmt.Fprintf(sb, "- Did not pay for meals: %d\n", t.NoMealsAccess)
	fmt.Fprintf(sb, "- Lunch restricted to a registered day: %d\n", t.RestrictedOnly)
	return nil
}

func (b *ContextBuilder) writeInventory(ctx context.Context, sb *strings.Builder, _ time.Time) error {
	drinks, err := b.src.Drinks.List(ctx)
	if err != nil {
		return fmt.Errorf("list drinks: %w", err)
	}
	sort.SliceStable(drinks, func(i, j int) bool {
		return natsort.Compare(strings.ToLower(drinks[i].Name), strings.ToLower(drinks[j].Name))
	})

	sb.WriteString("\n=== DRINK INVENTORY ===\n")
	if len(drinks) == 0 {
		sb.WriteString("No drinks in inventory\n")
	}
	var low []models.DrinkType
	for _, d := range drinks {
		fmt.Fprintf(sb, "- %s: %d units\n", d.Name, d.AvailableQuantity)
		if d.AvailableQuantity < models.LowStockThreshold {
			low = append(low, d)
		}
	}

	fmt.Fprintf(sb, "\n=== LOW STOCK ALERTS (below %d) ===\n", models.LowStockThreshold)
	if len(low) == 0 {
		sb.WriteString("All drinks adequately stocked\n")
	}
	for _, d := range low {
		fmt.Fprintf(sb, "- %s: %d units\n", d.Name, d.AvailableQuantity)
	}
	return nil
}

func (b *ContextBuilder) writeTransactions(ctx context.Context, sb *strings.Builder, today time.Time) error {
	pendingCount, err := b.src.Orders.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("count pending orders: %w", err)
	}
	approvedToday, err := b.src.Stats.OrderCountsSince(ctx, models.OrderApproved, today)
	if err != nil {
		return fmt.Errorf("count approved orders: %w", err)
	}
	pending, err := b.src.Orders.ListPending(ctx, maxPendingOrders)
	if err != nil {
		return fmt.Errorf("list pending orders: %w", err)
	}
	recent, err := b.src.Orders.ListRecent(ctx, maxRecentOrders)
	if err != nil {
		return fmt.Errorf("list recent orders: %w", err)
	}

	sb.WriteString("\n=== DRINK TRANSACTIONS ===\n")
	fmt.Fprintf(sb, "- Pending orders: %d\n", pendingCount)
	fmt.Fprintf(sb, "- Approved today: %d\n", approvedToday)

	sb.WriteString("Pending (oldest first):\n")
	if len(pending) == 0 {
		sb.WriteString("- none\n")
	}
	for _, o := range pending {
		fmt.Fprintf(sb, "- #%d %s\n", o.ID, describeOrder(o))
	}

	sb.WriteString("Recent activity:\n")
	if len(recent) == 0 {
		sb.WriteString("- none\n")
	}
	for _, o := range recent {
		fmt.Fprintf(sb, "- #%d %s (%s)\n", o.ID, describeOrder(o), o.Status)
	}
	return nil
}

func describeOrder(o models.DrinkOrder) string {
	person := fmt.Sprintf("person %d", o.PersonID)
	if o.Person != nil {
		person = o.Person.FullName()
	}
	drink := fmt.Sprintf("drink %d", o.DrinkTypeID)
	if o.DrinkType != nil {
		drink = o.DrinkType.Name
	}
	return fmt.Sprintf("%s ordered %dx %s at %s, %s", person, o.Quantity, drink, o.ServingPoint, o.CreatedAt.Format(timestampLayout))
}

// writePeople renders matched profiles, a no-match notice when a name was
// searched without result, or a bounded registry listing.
func (b *ContextBuilder) writePeople(ctx context.Context, sb *strings.Builder, intent Intent) error {
	switch {
	case intent.Matched():
		people, err := b.src.People.GetByIDs(ctx, intent.PersonIDs)
		if err != nil {
			return fmt.Errorf("load matched people: %w", err)
		}
		fmt.Fprintf(sb, "\n=== PERSON DETAILS (matched %q) ===\n", intent.PersonName)
		for _, p := range orderByIDs(people, intent.PersonIDs) {
			writeProfile(sb, p)
		}
		return nil

	case intent.NeedsSpecificUser && intent.NameSearched:
		sb.WriteString("\n=== PERSON DETAILS ===\n")
		sb.WriteString("No registered person matches the name in this question. " +
			"Tell the admin no match was found and suggest checking the spelling; do not guess a similar person.\n")
		return nil
	}

	total, err := b.src.People.Count(ctx)
	if err != nil {
		return fmt.Errorf("count people: %w", err)
	}
	people, err := b.src.People.List(ctx, maxListedPeople)
	if err != nil {
		return fmt.Errorf("list people: %w", err)
	}
	sb.WriteString("\n=== REGISTERED PEOPLE ===\n")
	if len(people) == 0 {
		sb.WriteString("No people registered\n")
	}
	for _, p := range people {
		fmt.Fprintf(sb, "- %s (%s): lunches %d, dinners %d, drinks %d; %s\n",
			p.FullName(), p.Gender, p.LunchesRemaining, p.DinnersRemaining, p.DrinksRemaining, p.PaymentStatus())
	}
	if more := total - int64(len(people)); more > 0 {
		fmt.Fprintf(sb, "…and %d more\n", more)
	}
	return nil
}

func writeProfile(sb *strings.Builder, p models.Person) {
	fmt.Fprintf(sb, "- %s\n", p.FullName())
	fmt.Fprintf(sb, "  Gender: %s\n", p.Gender)
	fmt.Fprintf(sb, "  Payment status: %s\n", p.PaymentStatus())
	fmt.Fprintf(sb, "  Remaining this week: lunches %d, dinners %d, drinks %d\n",
		p.LunchesRemaining, p.DinnersRemaining, p.DrinksRemaining)
	fmt.Fprintf(sb, "  Club: %s\n", orNone(p.Club))
	fmt.Fprintf(sb, "  Membership: %s\n", orNone(p.Membership))
	fmt.Fprintf(sb, "  Friday lunch: %s, Saturday lunch: %s, BBQ dinner: %s\n",
		yesNo(p.HasFridayLunch), yesNo(p.HasSaturdayLunch), yesNo(p.HasBBQ))
	if p.DietaryRequirements != nil && *p.DietaryRequirements != "" {
		fmt.Fprintf(sb, "  Dietary requirements: %s\n", *p.DietaryRequirements)
	}
}

func (b *ContextBuilder) writeMealLog(ctx context.Context, sb *strings.Builder, today time.Time) error {
	tallies, err := b.src.Stats.MealTalliesSince(ctx, today)
	if err != nil {
		return fmt.Errorf("meal tallies: %w", err)
	}
	records, err := b.src.Consumption.ListRecent(ctx, maxMealLogEntries)
	if err != nil {
		return fmt.Errorf("list consumption: %w", err)
	}

	sb.WriteString("\n=== MEAL LOG ===\n")
	parts := make([]string, 0, len(models.MealKinds))
	for _, kind := range models.MealKinds {
		parts = append(parts, fmt.Sprintf("%s %d", kind, tallies[kind]))
	}
	fmt.Fprintf(sb, "Today: %s\n", strings.Join(parts, ", "))

	if len(records) == 0 {
		sb.WriteString("No meals logged yet\n")
	}
	for _, r := range records {
		who := fmt.Sprintf("person %d", r.PersonID)
		if r.Person != nil {
			who = r.Person.FullName()
		}
		line := fmt.Sprintf("- %s %s: %s", r.ConsumedAt.Format(timestampLayout), who, r.Kind)
		if r.ServingPoint != nil && *r.ServingPoint != "" {
			line += " at " + *r.ServingPoint
		}
		sb.WriteString(line + "\n")
	}
	return nil
}

func writeFooter(sb *strings.Builder, adminName string) {
	sb.WriteString("\n=== SYSTEM CAPABILITIES ===\n")
	sb.WriteString("You can answer questions about:\n")
	sb.WriteString("- Meal allowances per person (lunches, dinners and drinks per week)\n")
	sb.WriteString("- Event registrations and who paid for which meals\n")
	sb.WriteString("- Drink inventory and stock levels\n")
	sb.WriteString("- Pending approvals and drink transaction history\n")
	sb.WriteString("- Meal consumption logs\n")
	sb.WriteString("- If someone asks how many users are registered or scanned they mean the number of people in the system.\n")
	fmt.Fprintf(sb, "\nThe name of the user is %s, use it to personalize responses.\n", adminName)
	sb.WriteString("Only use the data above; say so when it does not contain the answer.\n")
}

func orderByIDs(people []models.Person, ids []uint) []models.Person {
	byID := make(map[uint]models.Person, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}
	ordered := make([]models.Person, 0, len(people))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func orNone(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "none"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
