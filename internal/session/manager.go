package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"campus-portal/backend/internal/access"
)

// Snapshot is a read-only view of the manager state.
type Snapshot struct {
	Phase access.Phase
	User  *User
	Role  access.Role
	access.Caps

	seq uint64
}

// State is the part of the snapshot the gate decides on.
func (s Snapshot) State() access.State {
	return access.State{Phase: s.Phase, Role: s.Role}
}

// Decide runs the route gate for this snapshot.
func (s Snapshot) Decide(req access.Requirements, from string) access.Decision {
	return access.Decide(s.State(), req, from)
}

// Allows is the conditional-render check: signed in and passing req.
func (s Snapshot) Allows(req access.Requirements) bool {
	return s.Phase == access.PhaseAuthenticated && access.Passes(s.Role, req)
}

// listener delivers snapshots to one subscriber, one call at a time and newest last. A snapshot
// older than the last one delivered is dropped; one that arrives during a call is held and
// delivered after it, replacing any older held snapshot.
type listener struct {
	id uint64
	fn func(Snapshot)

	mu        sync.Mutex
	busy      bool
	cancelled bool
	last      uint64
	pending   *Snapshot
}

func (l *listener) deliver(s Snapshot) {
	l.mu.Lock()
	if l.cancelled || s.seq <= l.last {
		l.mu.Unlock()
		return
	}
	if l.busy {
		if l.pending == nil || l.pending.seq < s.seq {
			l.pending = &s
		}
		l.mu.Unlock()
		return
	}
	l.busy = true
	for {
		l.last = s.seq
		l.mu.Unlock()
		l.fn(s)

		l.mu.Lock()
		if l.cancelled || l.pending == nil {
			l.busy = false
			l.pending = nil
			l.mu.Unlock()
			return
		}
		s = *l.pending
		l.pending = nil
	}
}

func (l *listener) cancel() {
	l.mu.Lock()
	l.cancelled = true
	l.pending = nil
	l.mu.Unlock()
}

// Manager is the single owner of the client auth state.
//
// Provider callbacks only record what changed and queue follow-up work; role lookups and other
// provider calls run on the manager's own task goroutine. Listeners are called outside the lock
// on the goroutine that made the change; each listener sees changes in state order and its last
// call always carries the current state.
type Manager struct {
	provider Provider
	logger   *zap.Logger
	tasks    *taskQueue

	mu       sync.Mutex
	looked   bool
	notified bool
	// settled is set once an auth event or an explicit sign-out decided the session; a late
	// session lookup result no longer applies after that.
	settled   bool
	user      *User
	role      access.Role
	gen       uint64
	seq       uint64
	listeners []*listener
	nextID    uint64

	started bool
	unsub   func()
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a Manager in the Loading phase. Call Start to begin.
func NewManager(p Provider, logger *zap.Logger) *Manager {
	return &Manager{
		provider: p,
		logger:   logger,
		tasks:    newTaskQueue(),
		done:     make(chan struct{}),
	}
}

// Start subscribes to the provider, looks up an existing session and starts the task
// goroutine. It returns immediately.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	go m.run(ctx)

	unsub := m.provider.OnAuthStateChange(m.onAuthChange)
	m.mu.Lock()
	m.unsub = unsub
	m.mu.Unlock()

	m.tasks.push(m.lookupExisting)
}

// Close unsubscribes and stops the task goroutine. Queued work is dropped.
func (m *Manager) Close() {
	m.mu.Lock()
	started, unsub, cancel := m.started, m.unsub, m.cancel
	m.unsub = nil
	m.mu.Unlock()

	if !started {
		return
	}
	if unsub != nil {
		unsub()
	}
	cancel()
	<-m.done
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn for every state change. The returned func removes it.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	l := &listener{id: id, fn: fn}
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.cancel()
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, other := range m.listeners {
				if other.id == id {
					m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Wait blocks until pred holds for the state or ctx is done.
func (m *Manager) Wait(ctx context.Context, pred func(Snapshot) bool) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	cancel := m.Subscribe(func(s Snapshot) {
		if pred(s) {
			select {
			case ch <- s:
			default:
			}
		}
	})
	defer cancel()

	if s := m.Snapshot(); pred(s) {
		return s, nil
	}
	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		return m.Snapshot(), ctx.Err()
	}
}

// SignIn checks the credentials with the provider. The session arrives through the provider's
// change notification; the role may still be unresolved when this returns. Failures are always
// *AuthError.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if err := m.provider.SignIn(ctx, email, password); err != nil {
		return toAuthError("sign in", err)
	}
	return nil
}

// SignUp registers an account. Failures are always *AuthError.
func (m *Manager) SignUp(ctx context.Context, p SignUpParams) error {
	if err := m.provider.SignUp(ctx, p); err != nil {
		return toAuthError("sign up", err)
	}
	return nil
}

// SignOut clears user and role now and tells the provider in the background.
func (m *Manager) SignOut() {
	m.mu.Lock()
	m.settled = true
	m.clearLocked()
	snap, ls := m.changedLocked()
	m.mu.Unlock()
	notify(ls, snap)

	m.tasks.push(func(ctx context.Context) {
		if err := m.provider.SignOut(ctx); err != nil {
			m.logger.Warn("provider sign out failed", zap.Error(err))
		}
	})
}

// RefreshRole re-resolves the role of the current user. The previous role stays visible until
// the lookup finishes.
func (m *Manager) RefreshRole() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return
	}
	m.gen++
	m.queueResolveLocked()
}

func (m *Manager) onAuthChange(evt Event, s *Session) {
	m.mu.Lock()
	m.notified = true
	m.settled = true
	if s == nil {
		m.clearLocked()
	} else {
		m.setUserLocked(s.User)
	}
	snap, ls := m.changedLocked()
	m.mu.Unlock()

	m.logger.Debug("auth state changed", zap.Stringer("event", evt), zap.Stringer("phase", snap.Phase))
	notify(ls, snap)
}

func (m *Manager) lookupExisting(ctx context.Context) {
	s, err := m.provider.GetSession(ctx)
	if err != nil {
		m.logger.Debug("session lookup failed", zap.Error(err))
	}

	m.mu.Lock()
	m.looked = true
	if err == nil && s != nil && !m.settled {
		m.setUserLocked(s.User)
	}
	snap, ls := m.changedLocked()
	m.mu.Unlock()
	notify(ls, snap)
}

func (m *Manager) resolve(ctx context.Context, gen uint64, userID string) {
	role, err := m.provider.LookupRole(ctx, userID)
	if err != nil {
		// fail closed: lookup errors leave the role unresolved
		m.logger.Debug("role lookup failed", zap.String("user_id", userID), zap.Error(err))
		role = access.RoleUnresolved
	}
	if !role.Valid() {
		role = access.RoleUnresolved
	}

	m.mu.Lock()
	if m.gen != gen || m.user == nil || m.user.ID != userID {
		m.mu.Unlock()
		return
	}
	m.role = role
	snap, ls := m.changedLocked()
	m.mu.Unlock()
	notify(ls, snap)
}

// setUserLocked records u. A new user starts unresolved and gets a role lookup; the same
// user (token refresh) keeps its role.
func (m *Manager) setUserLocked(u User) {
	if m.user != nil && m.user.ID == u.ID {
		m.user.Email = u.Email
		return
	}
	m.user = &User{ID: u.ID, Email: u.Email}
	m.role = access.RoleUnresolved
	m.gen++
	m.queueResolveLocked()
}

func (m *Manager) queueResolveLocked() {
	gen, id := m.gen, m.user.ID
	m.tasks.push(func(ctx context.Context) { m.resolve(ctx, gen, id) })
}

func (m *Manager) clearLocked() {
	m.user = nil
	m.role = access.RoleUnresolved
	m.gen++
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{Phase: access.PhaseLoading, Role: m.role, seq: m.seq}
	if m.looked && m.notified {
		s.Phase = access.PhaseAnonymous
		if m.user != nil {
			s.Phase = access.PhaseAuthenticated
		}
	}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	s.Caps = access.Capabilities(s.Role)
	return s
}

// changedLocked stamps a new state version and returns it with the listeners to tell.
func (m *Manager) changedLocked() (Snapshot, []*listener) {
	m.seq++
	return m.snapshotLocked(), append([]*listener(nil), m.listeners...)
}

func notify(ls []*listener, s Snapshot) {
	for _, l := range ls {
		l.deliver(s)
	}
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	for {
		for {
			task, ok := m.tasks.pop()
			if !ok {
				break
			}
			task(ctx)
			if ctx.Err() != nil {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-m.tasks.wake:
		}
	}
}

// taskQueue is an unbounded FIFO; push never blocks so it is safe inside callbacks.
type taskQueue struct {
	mu    sync.Mutex
	items []func(context.Context)
	wake  chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{wake: make(chan struct{}, 1)}
}

func (q *taskQueue) push(f func(context.Context)) {
	q.mu.Lock()
	q.items = append(q.items, f)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *taskQueue) pop() (func(context.Context), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	f := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return f, true
}
