// Package session serializes work on each (user, agent) conversation and
// keeps its state in the session repository.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/autoflow/pkg/models"
	"github.com/dukex/autoflow/pkg/persistence"
)

type key struct {
	user  string
	agent string
}

// lock is a one-slot semaphore shared by every caller of a key.
type lock struct {
	slot chan struct{}
	refs int
}

// Manager gives callers exclusive access to one session at a time. Callers of
// different keys never wait on each other.
type Manager struct {
	repo   *persistence.SessionRepository
	logger *slog.Logger

	mu    sync.Mutex
	locks map[key]*lock
}

func NewManager(repo *persistence.SessionRepository, logger *slog.Logger) *Manager {
	return &Manager{
		repo:   repo,
		logger: logger,
		locks:  make(map[key]*lock),
	}
}

// With loads (or creates) the session, runs fn while holding the key's lock
// and saves the session when fn succeeds. Waiting for the lock honors ctx.
func (m *Manager) With(ctx context.Context, userID, agentID string, fn func(*models.Session) error) error {
	k := key{user: userID, agent: agentID}

	if err := m.acquire(ctx, k); err != nil {
		return err
	}
	defer m.release(k)

	session, err := m.repo.Get(ctx, userID, agentID)
	if persistence.IsNotFound(err) {
		session = models.NewSession(userID, agentID)
		err = nil
	}

	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := fn(session); err != nil {
		return err
	}

	session.UpdatedAt = time.Now().UTC()

	// a cancelled request still keeps what fn already did
	if err := m.repo.Save(context.WithoutCancel(ctx), session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// ClearMemory discards the conversation of the pair. It waits for any
// in-flight message of the same pair. before, when not nil, sees the stored
// session under the same lock just ahead of the delete; its error aborts the
// clear.
func (m *Manager) ClearMemory(ctx context.Context, userID, agentID string, before func(*models.Session) error) error {
	k := key{user: userID, agent: agentID}

	if err := m.acquire(ctx, k); err != nil {
		return err
	}
	defer m.release(k)

	if before != nil {
		session, err := m.repo.Get(ctx, userID, agentID)

		switch {
		case persistence.IsNotFound(err):
		case err != nil:
			return fmt.Errorf("failed to load session: %w", err)
		default:
			if err := before(session); err != nil {
				return err
			}
		}
	}

	if err := m.repo.Delete(ctx, userID, agentID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	m.logger.InfoContext(ctx, "Session memory cleared", "user_id", userID, "agent_id", agentID)

	return nil
}

func (m *Manager) acquire(ctx context.Context, k key) error {
	m.mu.Lock()

	l, ok := m.locks[k]
	if !ok {
		l = &lock{slot: make(chan struct{}, 1)}
		m.locks[k] = l
	}

	l.refs++
	m.mu.Unlock()

	select {
	case l.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.unref(k, l)

		return fmt.Errorf("waiting for session lock: %w", ctx.Err())
	}
}

func (m *Manager) release(k key) {
	m.mu.Lock()
	l := m.locks[k]
	m.mu.Unlock()

	<-l.slot

	m.unref(k, l)
}

// unref drops the entry once nobody holds or waits for it.
func (m *Manager) unref(k key, l *lock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(m.locks, k)
	}
}

// active returns the number of keys with a holder or waiter.
func (m *Manager) active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.locks)
}
