package hook

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/actingweb/actingweb-sub001/internal/event"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Registration is an immutable entry of the hook table.
type Registration struct {
	ID       string
	Order    uint64
	Category types.Category
	Name     string
	Source   string
	Callable Callable
	Created  time.Time
}

// Wildcard reports whether the registration sits in the wildcard bucket.
func (r *Registration) Wildcard() bool { return r.Name == types.Wildcard }

// Handle identifies a registration.
type Handle struct {
	ID    string
	Order uint64
}

// RegisterOption customizes a registration.
type RegisterOption func(*Registration)

// WithSource labels where a registration came from ("builtin", "config", ...).
func WithSource(source string) RegisterOption {
	return func(r *Registration) { r.Source = source }
}

// snapshot is an immutable view of the table. Slices are never appended
// to in place once published.
type snapshot struct {
	buckets map[types.Category]map[string][]*Registration
	all     []*Registration
}

// Table owns registered hooks keyed by category and name, in registration
// order. Register is serialized; reads are lock-free against the latest
// published snapshot, so dispatches never contend with each other.
type Table struct {
	mu     sync.Mutex
	snap   atomic.Pointer[snapshot]
	seq    uint64
	frozen atomic.Bool

	bus *event.Bus
	log zerolog.Logger
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithTableBus publishes hook.registered events on bus.
func WithTableBus(bus *event.Bus) TableOption {
	return func(t *Table) { t.bus = bus }
}

// WithTableLogger sets the table's logger.
func WithTableLogger(l zerolog.Logger) TableOption {
	return func(t *Table) { t.log = l }
}

// NewTable creates an empty table.
func NewTable(opts ...TableOption) *Table {
	t := &Table{log: logging.Component("hook")}
	for _, opt := range opts {
		opt(t)
	}
	t.snap.Store(&snapshot{buckets: map[types.Category]map[string][]*Registration{}})
	return t
}

// Register appends callable to the ordered list for (category, name).
// Duplicates are legal and all run in order. Pass types.Wildcard as name
// to register a catch-all hook for the category.
//
// Register panics on an unknown category, an empty name or a nil
// callable: those are wiring mistakes, not runtime conditions.
func (t *Table) Register(category types.Category, name string, callable Callable, opts ...RegisterOption) Handle {
	if !category.Valid() {
		panic(fmt.Sprintf("hook: register: unknown category %q", category))
	}
	if strings.TrimSpace(name) == "" {
		panic("hook: register: empty name")
	}
	if callable.fn == nil {
		panic(fmt.Sprintf("hook: register %s/%s: nil callable", category, name))
	}

	t.mu.Lock()
	t.seq++
	reg := &Registration{
		ID:       ulid.Make().String(),
		Order:    t.seq,
		Category: category,
		Name:     name,
		Callable: callable,
		Created:  time.Now(),
	}
	for _, opt := range opts {
		opt(reg)
	}

	old := t.snap.Load()
	buckets := make(map[types.Category]map[string][]*Registration, len(old.buckets)+1)
	for c, names := range old.buckets {
		buckets[c] = names
	}
	names := make(map[string][]*Registration, len(old.buckets[category])+1)
	for n, regs := range old.buckets[category] {
		names[n] = regs
	}
	prev := names[name]
	regs := make([]*Registration, len(prev), len(prev)+1)
	copy(regs, prev)
	names[name] = append(regs, reg)
	buckets[category] = names

	all := make([]*Registration, len(old.all), len(old.all)+1)
	copy(all, old.all)
	t.snap.Store(&snapshot{buckets: buckets, all: append(all, reg)})
	t.mu.Unlock()

	logEvt := t.log.Debug()
	if t.frozen.Load() {
		logEvt = t.log.Warn()
	}
	logEvt.Str("category", string(category)).
		Str("name", name).
		Str("kind", callable.kind.String()).
		Str("id", reg.ID).
		Uint64("order", reg.Order).
		Bool("frozen", t.frozen.Load()).
		Msg("hook registered")
	if len(prev) > 0 {
		t.log.Debug().
			Str("category", string(category)).
			Str("name", name).
			Int("earlier", len(prev)).
			Msg("hook shadowed whenever an earlier registration returns a value")
	}

	if t.bus != nil {
		t.bus.Publish(event.Event{
			Type: event.HookRegistered,
			Data: event.HookRegisteredData{
				ID:       reg.ID,
				Order:    reg.Order,
				Category: string(category),
				Name:     name,
				Kind:     callable.kind.String(),
				Source:   reg.Source,
			},
		})
	}

	return Handle{ID: reg.ID, Order: reg.Order}
}

// RegisterWildcard registers callable under the category's wildcard.
func (t *Table) RegisterWildcard(category types.Category, callable Callable, opts ...RegisterOption) Handle {
	return t.Register(category, types.Wildcard, callable, opts...)
}

// Freeze marks the end of the wiring phase. Later registrations still
// succeed but are logged as warnings.
func (t *Table) Freeze() {
	t.frozen.Store(true)
}

// Frozen reports whether Freeze was called.
func (t *Table) Frozen() bool {
	return t.frozen.Load()
}

// CandidatesFor returns the registrations for the exact name in order,
// followed by the category's wildcard registrations in order. The result
// is a fresh slice; it is empty when nothing matches.
func (t *Table) CandidatesFor(category types.Category, name string) []*Registration {
	names := t.snap.Load().buckets[category]
	if name == types.Wildcard {
		return append([]*Registration(nil), names[types.Wildcard]...)
	}
	exact := names[name]
	wild := names[types.Wildcard]
	out := make([]*Registration, 0, len(exact)+len(wild))
	out = append(out, exact...)
	return append(out, wild...)
}

// Len returns the number of registrations.
func (t *Table) Len() int {
	return len(t.snap.Load().all)
}

// Registrations returns every registration in registration order.
func (t *Table) Registrations() []*Registration {
	return append([]*Registration(nil), t.snap.Load().all...)
}

// Names returns the sorted specific (non-wildcard) names registered for
// category.
func (t *Table) Names(category types.Category) []string {
	names := t.snap.Load().buckets[category]
	out := make([]string, 0, len(names))
	for n := range names {
		if n != types.Wildcard {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
