// Package session tracks an authentication session and whether its user is
// privileged.
//
// A Gate starts in Loading. Each session event is handled sequentially: an
// event carrying a user resolves the privilege flag through a
// PrivilegeResolver before the gate leaves Loading, and an event without a
// user moves straight to Anonymous without any lookup. Protected content must
// not be served while the gate is Loading.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/city-guide/api-go/logging"
	"github.com/rs/zerolog"
)

var (
	ErrNotResolved     = errors.New("session: loading has not completed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrAccessDenied    = errors.New("access denied")
)

type State int

const (
	Loading State = iota
	Anonymous
	AuthenticatedUnprivileged
	AuthenticatedPrivileged
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Anonymous:
		return "anonymous"
	case AuthenticatedUnprivileged:
		return "authenticated-unprivileged"
	case AuthenticatedPrivileged:
		return "authenticated-privileged"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Session struct {
	UserID      uint      `json:"userId"`
	Email       string    `json:"email"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type EventKind int

const (
	InitialSession EventKind = iota
	SignedIn
	TokenRefreshed
	SignedOut
)

// Event is a session-changed notification. A nil Session means no user.
type Event struct {
	Kind    EventKind
	Session *Session
}

// PrivilegeResolver answers whether a user is an administrator.
type PrivilegeResolver interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

type PrivilegeResolverFunc func(ctx context.Context, userID uint) (bool, error)

func (f PrivilegeResolverFunc) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	return f(ctx, userID)
}

type Snapshot struct {
	State   State    `json:"state"`
	Session *Session `json:"session,omitempty"`
	IsAdmin bool     `json:"isAdmin"`
	Loading bool     `json:"isLoading"`
}

// RequireUser returns nil when the snapshot has an authenticated user.
func (s Snapshot) RequireUser() error {
	switch s.State {
	case Loading:
		return ErrNotResolved
	case AuthenticatedPrivileged, AuthenticatedUnprivileged:
		return nil
	}
	return ErrUnauthenticated
}

// RequireAdmin returns nil only for a resolved privileged session.
func (s Snapshot) RequireAdmin() error {
	if err := s.RequireUser(); err != nil {
		return err
	}
	if s.State != AuthenticatedPrivileged {
		return ErrAccessDenied
	}
	return nil
}

type Gate struct {
	resolver PrivilegeResolver
	logger   zerolog.Logger

	mu          sync.Mutex
	snap        Snapshot
	generation  uint64
	ready       chan struct{}
	resolved    bool
	subscribers map[chan Snapshot]struct{}
}

func NewGate(resolver PrivilegeResolver) *Gate {
	return &Gate{
		resolver:    resolver,
		logger:      logging.NewPackageLogger("session"),
		snap:        Snapshot{State: Loading, Loading: true},
		ready:       make(chan struct{}),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Handle applies one event and returns the resulting snapshot. Privilege
// resolution happens inline; a result that arrives after a newer event has
// been applied is discarded.
func (g *Gate) Handle(ctx context.Context, ev Event) Snapshot {
	if ev.Kind == SignedOut || ev.Session == nil {
		return g.SignOut()
	}

	g.mu.Lock()
	g.generation++
	gen := g.generation
	g.snap.Session = ev.Session
	g.mu.Unlock()

	isAdmin, err := g.resolver.IsAdmin(ctx, ev.Session.UserID)
	if err != nil {
		g.logger.Error().Err(err).Uint(logging.USER, ev.Session.UserID).Msg("privilege check failed")
		isAdmin = false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		return g.snap
	}

	state := AuthenticatedUnprivileged
	if isAdmin {
		state = AuthenticatedPrivileged
	}
	g.snap = Snapshot{State: state, Session: ev.Session, IsAdmin: isAdmin}
	g.resolveLocked()
	return g.snap
}

// SignOut clears the session, user and privilege flag immediately.
func (g *Gate) SignOut() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	g.snap = Snapshot{State: Anonymous}
	g.resolveLocked()
	return g.snap
}

// Run handles events until the channel closes or ctx is done.
func (g *Gate) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			g.Handle(ctx, ev)
		}
	}
}

// Wait blocks until loading has completed at least once.
func (g *Gate) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-g.ready:
		return g.Snapshot(), nil
	case <-ctx.Done():
		return g.Snapshot(), fmt.Errorf("%w: %v", ErrNotResolved, ctx.Err())
	}
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

// Subscribe returns a channel holding the latest resolved snapshot and a
// function that cancels the subscription. Slow readers only see the most
// recent state.
func (g *Gate) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	if g.resolved {
		ch <- g.snap
	}
	g.mu.Unlock()

	return ch, func() {
		g.mu.Lock()
		delete(g.subscribers, ch)
		g.mu.Unlock()
	}
}

// resolveLocked must be called with g.mu held.
func (g *Gate) resolveLocked() {
	if !g.resolved {
		g.resolved = true
		close(g.ready)
	}
	for ch := range g.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- g.snap
	}
}
