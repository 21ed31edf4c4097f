package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/switchyard-io/switchyard/internal/logging"
	"github.com/switchyard-io/switchyard/pkg/domain"
)

const (
	// MaxHistory bounds the per-machine transition history. Appends past
	// the cap evict the oldest entries first.
	MaxHistory = 100

	// DefaultHistoryLimit is the number of records History returns when
	// the caller does not specify a limit.
	DefaultHistoryLimit = 10
)

// Listener is a callback invoked synchronously after every successful
// transition of the machine it is subscribed to.
type Listener func(change domain.SendResult)

type listenerEntry struct {
	token string
	fn    Listener
}

// tableKey addresses one entry in a machine's flat transition table.
type tableKey struct {
	from  domain.StateID
	event domain.EventID
}

// machine is the registry-internal representation of one named machine.
// The transition table keeps its insertion order because Reset depends on
// the source state of the first registered transition.
type machine struct {
	id        string
	current   domain.StateID
	context   map[string]any
	history   []domain.Record
	stateMeta map[domain.StateID]map[string]any
	created   time.Time

	transitions map[tableKey]domain.Transition
	order       []tableKey
	listeners   []listenerEntry
}

// Registry owns zero or more independently operating named machines and
// routes events to them. Safe for concurrent use; listener notification
// happens outside the registry lock, so listeners may call back into the
// registry.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*machine

	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a structured logger for overwrite warnings and
// listener failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// WithClock overrides the time source. Used by tests to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		machines: make(map[string]*machine),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a machine under the given id, or wholesale-replaces an
// existing one. Replacement discards the previous transition table AND
// its listeners; subscribers do not survive re-registration. That is
// deliberate (replacement is total) but surprises callers who expect
// subscriptions to persist, so an overwrite is logged at warning level.
//
// The nested definition transitions are flattened into (from, event)
// entries in lexical order of (from, event), which makes the table's
// insertion order deterministic. Returns a snapshot of the new machine,
// or nil if id is empty.
func (r *Registry) Register(id string, def domain.Definition) *domain.Machine {
	if id == "" {
		r.logger.Warn("refusing to register machine with empty id")
		return nil
	}

	initial := def.Initial
	if initial == "" {
		initial = domain.DefaultInitialState
	}

	m := &machine{
		id:          id,
		current:     initial,
		context:     make(map[string]any, len(def.Context)),
		stateMeta:   make(map[domain.StateID]map[string]any, len(def.States)),
		created:     r.now(),
		transitions: make(map[tableKey]domain.Transition),
	}
	for k, v := range def.Context {
		m.context[k] = v
	}
	for state, meta := range def.States {
		m.stateMeta[state] = meta
	}
	for _, from := range sortedStates(def.Transitions) {
		events := def.Transitions[from]
		for _, event := range sortedEvents(events) {
			t := events[event]
			if t.IsZero() {
				continue
			}
			key := tableKey{from: from, event: event}
			m.transitions[key] = t
			m.order = append(m.order, key)
		}
	}

	r.mu.Lock()
	_, replaced := r.machines[id]
	r.machines[id] = m
	snap := m.snapshot(0)
	r.mu.Unlock()

	if replaced {
		r.logger.Warn("machine replaced; previous transitions and listeners discarded", "machine", id)
	} else if r.hooks.OnRegister != nil {
		r.hooks.OnRegister(id)
	}
	return snap
}

// RegisterTransition adds or overwrites a single flat entry in the named
// machine's transition table. Unlike Register it never creates a machine:
// it returns domain.ErrNotRegistered if id is unknown.
func (r *Registry) RegisterTransition(id string, from domain.StateID, event domain.EventID, t domain.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.machines[id]
	if !ok {
		return domain.ErrNotRegistered
	}

	key := tableKey{from: from, event: event}
	if _, exists := m.transitions[key]; !exists {
		m.order = append(m.order, key)
	}
	m.transitions[key] = t
	return nil
}

// Send delivers an event to the named machine. A missing transition for
// (current state, event) is a normal outcome: the result has Success
// false and the machine is left untouched. Only an unknown machine id is
// an error (domain.ErrNotRegistered).
//
// On a match the target state is resolved (literal or handler), the
// context patch is shallow-merged, a history record is appended under the
// MaxHistory cap, and every listener is invoked synchronously in
// registration order. A panicking listener is contained and logged; it
// does not stop later listeners or fail the send.
func (r *Registry) Send(id string, event domain.EventID, payload any) (domain.SendResult, error) {
	r.mu.Lock()

	m, ok := r.machines[id]
	if !ok {
		r.mu.Unlock()
		return domain.SendResult{Event: event}, domain.ErrNotRegistered
	}

	from := m.current
	t, matched := m.transitions[tableKey{from: from, event: event}]
	if !matched {
		res := domain.SendResult{
			Success: false,
			From:    from,
			To:      from,
			Event:   event,
			Context: copyContext(m.context),
		}
		r.mu.Unlock()
		r.emitTransition(id, res, false)
		return res, nil
	}

	out := t.Resolve(from, m.context, payload)
	for k, v := range out.Context {
		m.context[k] = v
	}
	m.current = out.State

	m.history = append(m.history, domain.Record{
		From:      from,
		To:        out.State,
		Event:     event,
		Payload:   payload,
		Timestamp: r.now(),
	})
	if n := len(m.history); n > MaxHistory {
		m.history = append(m.history[:0:0], m.history[n-MaxHistory:]...)
	}

	res := domain.SendResult{
		Success: true,
		From:    from,
		To:      out.State,
		Event:   event,
		Context: copyContext(m.context),
		Data:    out.Data,
	}
	listeners := append([]listenerEntry(nil), m.listeners...)
	r.mu.Unlock()

	r.emitTransition(id, res, true)
	r.notify(id, listeners, res)
	return res, nil
}

// State returns the machine's current state, or "" if id is unknown.
func (r *Registry) State(id string) domain.StateID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.machines[id]; ok {
		return m.current
	}
	return ""
}

// Context returns a copy of the machine's context, or nil if id is unknown.
func (r *Registry) Context(id string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.machines[id]; ok {
		return copyContext(m.context)
	}
	return nil
}

// InState reports whether the machine exists and is currently in state s.
func (r *Registry) InState(id string, s domain.StateID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.machines[id]
	return ok && m.current == s
}

// UpdateContext shallow-merges patch into the machine's context,
// bypassing the transition table. No history record is produced and no
// listeners are notified; callers that rely on notification must go
// through Send. No-op if id is unknown.
func (r *Registry) UpdateContext(id string, patch map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.machines[id]
	if !ok {
		return
	}
	for k, v := range patch {
		m.context[k] = v
	}
}

// History returns the most recent limit records (DefaultHistoryLimit when
// limit <= 0), oldest-first within the returned slice. Empty slice if id
// is unknown.
func (r *Registry) History(id string, limit int) []domain.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.machines[id]
	if !ok {
		return nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	n := len(m.history)
	if limit > n {
		limit = n
	}
	return append([]domain.Record(nil), m.history[n-limit:]...)
}

// Subscribe registers a listener for the machine's state changes and
// returns an opaque token for later removal. Listeners run in
// registration order. Returns "" if id is unknown.
func (r *Registry) Subscribe(id string, fn Listener) string {
	if fn == nil {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.machines[id]
	if !ok {
		return ""
	}
	token := uuid.NewString()
	m.listeners = append(m.listeners, listenerEntry{token: token, fn: fn})
	return token
}

// Unsubscribe removes the listener registered under token. No-op if the
// token or the machine is unknown.
func (r *Registry) Unsubscribe(id, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.machines[id]
	if !ok {
		return
	}
	for i, entry := range m.listeners {
		if entry.token == token {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Reset returns the machine to the source state of its first registered
// transition, or DefaultInitialState when the table is empty. The context
// is always cleared; history is cleared only when clearHistory is true.
//
// The reset state derives from table-insertion order, not from the
// configured initial state: registering a transition first changes the
// reset target. Callers depend on this; do not change it quietly.
func (r *Registry) Reset(id string, clearHistory bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.machines[id]
	if !ok {
		return
	}
	if len(m.order) > 0 {
		m.current = m.order[0].from
	} else {
		m.current = domain.DefaultInitialState
	}
	m.context = make(map[string]any)
	if clearHistory {
		m.history = nil
	}
}

// Unregister removes the machine, its transition table and its listener
// list atomically. Idempotent: unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	_, existed := r.machines[id]
	delete(r.machines, id)
	r.mu.Unlock()

	if existed && r.hooks.OnUnregister != nil {
		r.hooks.OnUnregister(id)
	}
}

// List returns the ids of all registered machines in lexical order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.machines))
	for id := range r.machines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Machine returns a snapshot of the named machine including its full
// history, or nil if id is unknown.
func (r *Registry) Machine(id string) *domain.Machine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if m, ok := r.machines[id]; ok {
		return m.snapshot(len(m.history))
	}
	return nil
}

// Events returns the machine's flat transition table as (from, event,
// target) tuples in insertion order. Handler transitions report an empty
// target. Used by visualization and validation; nil if id is unknown.
func (r *Registry) Events(id string) []TableEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.machines[id]
	if !ok {
		return nil
	}
	entries := make([]TableEntry, 0, len(m.order))
	for _, key := range m.order {
		t := m.transitions[key]
		entries = append(entries, TableEntry{
			From:    key.from,
			Event:   key.event,
			Target:  t.Target(),
			Handler: t.IsHandler(),
		})
	}
	return entries
}

// TableEntry is one row of a machine's flat transition table.
type TableEntry struct {
	From    domain.StateID `json:"from"`
	Event   domain.EventID `json:"event"`
	Target  domain.StateID `json:"target,omitempty"`
	Handler bool           `json:"handler,omitempty"`
}

func (r *Registry) emitTransition(id string, res domain.SendResult, matched bool) {
	ev := &domain.TransitionEvent{
		Timestamp: r.now(),
		MachineID: id,
		From:      res.From,
		To:        res.To,
		Event:     res.Event,
		Matched:   matched,
	}
	if matched {
		if r.hooks.OnTransition != nil {
			r.hooks.OnTransition(ev)
		}
		return
	}
	if r.hooks.OnNoMatch != nil {
		r.hooks.OnNoMatch(ev)
	}
}

// notify runs each listener wrapped in a recover so one failure cannot
// starve the rest or fail the send.
func (r *Registry) notify(id string, listeners []listenerEntry, res domain.SendResult) {
	for _, entry := range listeners {
		func() {
			defer func() {
				if v := recover(); v != nil {
					r.logger.Error("state change listener panicked", "machine", id, "token", entry.token, "err", v)
					if r.hooks.OnListenerPanic != nil {
						r.hooks.OnListenerPanic(&domain.ListenerPanicEvent{
							Timestamp: r.now(),
							MachineID: id,
							Token:     entry.token,
							Value:     v,
						})
					}
				}
			}()
			entry.fn(res)
		}()
	}
}

// snapshot copies the machine into a caller-owned domain.Machine carrying
// the most recent historyLen records. Caller must hold at least a read lock.
func (m *machine) snapshot(historyLen int) *domain.Machine {
	snap := &domain.Machine{
		ID:           m.id,
		CurrentState: m.current,
		Context:      copyContext(m.context),
		StateMeta:    make(map[domain.StateID]map[string]any, len(m.stateMeta)),
		Created:      m.created,
	}
	for state, meta := range m.stateMeta {
		snap.StateMeta[state] = meta
	}
	if historyLen > len(m.history) {
		historyLen = len(m.history)
	}
	if historyLen > 0 {
		snap.History = append([]domain.Record(nil), m.history[len(m.history)-historyLen:]...)
	}
	return snap
}

func copyContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}

func sortedStates(transitions map[domain.StateID]map[domain.EventID]domain.Transition) []domain.StateID {
	states := make([]domain.StateID, 0, len(transitions))
	for s := range transitions {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}

func sortedEvents(events map[domain.EventID]domain.Transition) []domain.EventID {
	out := make([]domain.EventID, 0, len(events))
	for e := range events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
