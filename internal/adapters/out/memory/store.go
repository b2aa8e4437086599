// Package memory is a storage driver that keeps everything in process memory. It has
// the same conditional write semantics as the postgres driver and is used for local runs
// and fast tests.
//
// Write transactions are serialized: Begin takes the store's writer lock and Commit or
// Rollback releases it. Changes are staged in the unit of work and applied on Commit.
// Reads outside a transaction see the last committed state, and writes outside a
// transaction commit immediately.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
)

// ErrNoTransaction is returned by Commit and Rollback without an active transaction.
var ErrNoTransaction = errors.New("no active transaction")

type codeState struct {
	orderID   kernel.UUID
	code      string
	issuedAt  time.Time
	expiresAt time.Time
	isUsed    bool
	usedAt    *time.Time
	attempts  int
}

// changes is the staged part of a transaction.
type changes struct {
	orders map[kernel.UUID]order.State
	robots map[kernel.UUID]robot.State
	codes  map[kernel.UUID]codeState
}

func newChanges() *changes {
	return &changes{
		orders: make(map[kernel.UUID]order.State),
		robots: make(map[kernel.UUID]robot.State),
		codes:  make(map[kernel.UUID]codeState),
	}
}

// Store holds the committed state.
type Store struct {
	writer sync.Mutex

	mu     sync.RWMutex
	orders map[kernel.UUID]order.State
	robots map[kernel.UUID]robot.State
	codes  map[kernel.UUID]codeState
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		orders: make(map[kernel.UUID]order.State),
		robots: make(map[kernel.UUID]robot.State),
		codes:  make(map[kernel.UUID]codeState),
	}
}

func (s *Store) apply(c *changes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, state := range c.orders {
		s.orders[id] = state
	}
	for id, state := range c.robots {
		s.robots[id] = state
	}
	for id, state := range c.codes {
		s.codes[id] = state
	}
}

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

// NewUnitOfWorkFactory creates a factory for store.
func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

// Create produces a new UnitOfWork.
func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork is a transaction over a Store. Not safe for concurrent use.
type UnitOfWork struct {
	store *Store
	tx    *changes
}

// Begin takes the writer lock. It blocks while another transaction is active and
// gives up when ctx is done.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return nil
	}

	for !u.store.writer.TryLock() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}

	u.tx = newChanges()
	return nil
}

// Commit applies the staged changes and releases the writer lock.
func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.tx == nil {
		return ErrNoTransaction
	}

	u.store.apply(u.tx)
	u.tx = nil
	u.store.writer.Unlock()
	return nil
}

// Rollback drops the staged changes and releases the writer lock.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.tx == nil {
		return ErrNoTransaction
	}

	u.tx = nil
	u.store.writer.Unlock()
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) RobotRepository() ports.RobotRepository {
	return &RobotRepository{uow: u}
}

func (u *UnitOfWork) DeliveryCodeRepository() ports.DeliveryCodeRepository {
	return &DeliveryCodeRepository{uow: u}
}

// write runs fn inside the active transaction, or inside a transaction of its own that
// commits when fn succeeds.
func (u *UnitOfWork) write(ctx context.Context, fn func(tx *changes) error) error {
	if u.tx != nil {
		return fn(u.tx)
	}

	if err := u.Begin(ctx); err != nil {
		return err
	}
	if err := fn(u.tx); err != nil {
		_ = u.Rollback(ctx)
		return err
	}
	return u.Commit(ctx)
}

func (u *UnitOfWork) order(id kernel.UUID) (order.State, bool) {
	if u.tx != nil {
		if state, ok := u.tx.orders[id]; ok {
			return state, true
		}
	}

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	state, ok := u.store.orders[id]
	return state, ok
}

func (u *UnitOfWork) allOrders() []order.State {
	u.store.mu.RLock()
	merged := make(map[kernel.UUID]order.State, len(u.store.orders))
	for id, state := range u.store.orders {
		merged[id] = state
	}
	u.store.mu.RUnlock()

	if u.tx != nil {
		for id, state := range u.tx.orders {
			merged[id] = state
		}
	}

	all := make([]order.State, 0, len(merged))
	for _, state := range merged {
		all = append(all, state)
	}
	return all
}

func (u *UnitOfWork) robot(id kernel.UUID) (robot.State, bool) {
	if u.tx != nil {
		if state, ok := u.tx.robots[id]; ok {
			return state, true
		}
	}

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	state, ok := u.store.robots[id]
	return state, ok
}

func (u *UnitOfWork) allRobots() []robot.State {
	u.store.mu.RLock()
	merged := make(map[kernel.UUID]robot.State, len(u.store.robots))
	for id, state := range u.store.robots {
		merged[id] = state
	}
	u.store.mu.RUnlock()

	if u.tx != nil {
		for id, state := range u.tx.robots {
			merged[id] = state
		}
	}

	all := make([]robot.State, 0, len(merged))
	for _, state := range merged {
		all = append(all, state)
	}
	return all
}

func (u *UnitOfWork) code(orderID kernel.UUID) (codeState, bool) {
	if u.tx != nil {
		if state, ok := u.tx.codes[orderID]; ok {
			return state, true
		}
	}

	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	state, ok := u.store.codes[orderID]
	return state, ok
}
