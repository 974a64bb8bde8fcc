package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/angelmondragon/payflow-checkout/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const defaultIdleTTL = 2 * time.Hour

// RegistryParams wires the dependencies shared by every session store.
type RegistryParams struct {
	Namespace string
	Snapshots SnapshotStore
	Stock     StockChecker
	Logger    *logger.Logger
	Metrics   snapshotObserver

	// IdleTTL is how long a store stays open after its last use when the
	// session expiry is unknown.
	IdleTTL time.Duration
	Clock   func() time.Time
}

type session struct {
	store    *Store
	deadline time.Time
}

// Registry owns one Store per buyer session. Stores are opened lazily on first
// use and dropped on logout or once the session deadline passes; the persisted
// snapshot outlives the in-memory store.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*session
	opening   singleflight.Group
	namespace string
	snapshots SnapshotStore
	stock     StockChecker
	logg      *logger.Logger
	metrics   snapshotObserver
	idleTTL   time.Duration
	now       func() time.Time
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	namespace := strings.TrimSpace(params.Namespace)
	if namespace == "" {
		namespace = DefaultKey
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	idleTTL := params.IdleTTL
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions:  map[string]*session{},
		namespace: namespace,
		snapshots: params.Snapshots,
		stock:     params.Stock,
		logg:      logg,
		metrics:   params.Metrics,
		idleTTL:   idleTTL,
		now:       now,
	}, nil
}

// SnapshotKey returns the storage key of a session's cart.
func (r *Registry) SnapshotKey(sessionID string) string {
	return r.namespace + ":" + sessionID
}

// Get returns the session's store, opening and restoring it on first access.
// The snapshot load runs outside the registry lock and concurrent first
// accesses to one session share it.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session missing")
	}
	deadline := r.deadline(ctx)
	if store, ok := r.touch(sessionID, deadline); ok {
		return store, nil
	}

	v, _, _ := r.opening.Do(sessionID, func() (any, error) {
		if store, ok := r.touch(sessionID, deadline); ok {
			return store, nil
		}
		// a cancelled load would restore an empty cart over the snapshot
		store := Open(context.WithoutCancel(ctx), Options{
			Key:       r.SnapshotKey(sessionID),
			Snapshots: r.snapshots,
			Stock:     r.stock,
			Logger:    r.logg,
			Metrics:   r.metrics,
		})
		r.mu.Lock()
		r.sessions[sessionID] = &session{store: store, deadline: deadline}
		r.mu.Unlock()
		return store, nil
	})
	store := v.(*Store)
	r.touch(sessionID, deadline)
	return store, nil
}

// touch returns an open store and pushes its deadline forward.
func (r *Registry) touch(sessionID string, deadline time.Time) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if deadline.After(s.deadline) {
		s.deadline = deadline
	}
	return s.store, true
}

func (r *Registry) deadline(ctx context.Context) time.Time {
	if expiry, ok := SessionExpiry(ctx); ok {
		return expiry
	}
	return r.now().Add(r.idleTTL)
}

// Close tears down the session's in-memory store. It reports whether one was open.
func (r *Registry) Close(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	return ok
}

// Sweep drops every store whose deadline has passed and returns how many
// were dropped. Snapshots are left in place.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, s := range r.sessions {
		if !s.deadline.After(now) {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps expired sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logg.Info(r.logg.WithField(ctx, "dropped", n), "cart.registry.swept")
			}
		}
	}
}

// Len returns the number of open session stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
