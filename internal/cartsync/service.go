// Package cartsync mediates between user intent, the remote cart backend,
// and the in-memory cart store. Mutations reach the store only after the
// backend confirms them; responses that lose a race to a newer request for
// the same line are discarded instead of applied out of order.
package cartsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/festimart/cartstate/internal/cart"
	pkgerrors "github.com/festimart/cartstate/pkg/errors"
	"github.com/festimart/cartstate/pkg/logger"
	"github.com/festimart/cartstate/pkg/types"
)

const refreshKey = "cart"

func lineKey(id string) string    { return "line/" + id }
func productKey(id string) string { return "product/" + id }

// Service drives the cart store with backend-confirmed payloads.
type Service struct {
	backend  Backend
	store    *cart.Store
	log      *logger.Logger
	validate *validator.Validate

	// mu guards the sequencing state and serializes store application, so
	// a ticket check and its apply are one atomic step.
	mu    sync.Mutex
	epoch uint64
	seq   map[string]uint64
}

// NewService builds a sync service over the given backend and store.
func NewService(backend Backend, store *cart.Store, log *logger.Logger) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		backend:  backend,
		store:    store,
		log:      log,
		validate: validator.New(),
		seq:      make(map[string]uint64),
	}, nil
}

// ticket marks one in-flight request. It is stale once a newer request was
// issued for the same key, or once the whole cart was replaced or cleared.
type ticket struct {
	key   string
	token uint64
	epoch uint64
}

func (s *Service) issue(key string) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[key]++
	return ticket{key: key, token: s.seq[key], epoch: s.epoch}
}

// commit applies fn iff the ticket is still current.
func (s *Service) commit(tk ticket, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tk.epoch != s.epoch || s.seq[tk.key] != tk.token {
		return false
	}
	fn()
	return true
}

// Refresh pulls the full cart from the backend and replaces the store with
// it. Lines that fail payload validation are dropped and logged rather than
// allowed to corrupt the store.
func (s *Service) Refresh(ctx context.Context) error {
	tk := s.issue(refreshKey)

	lines, err := s.backend.FetchCart(ctx)
	if err != nil {
		return s.backendErr(err, "fetch cart")
	}

	valid := make([]types.CartLineItem, 0, len(lines))
	for _, line := range lines {
		if err := s.validate.Struct(line); err != nil {
			s.log.Warn(s.log.WithLineID(ctx, line.ID), "dropping invalid cart line from backend payload")
			continue
		}
		valid = append(valid, line)
	}

	applied := s.commit(tk, func() {
		s.epoch++
		s.seq = make(map[string]uint64)
		s.store.ReplaceAll(valid)
	})
	if !applied {
		s.log.Debug(ctx, "discarding stale cart refresh response")
		return nil
	}

	s.log.Info(ctx, fmt.Sprintf("cart refreshed with %d lines", len(valid)))
	return nil
}

// Add asks the backend to add the product, then folds the confirmed line
// into the store. If the line already exists locally the confirmed quantity
// is authoritative, so repeat adds of one product never double-count.
func (s *Service) Add(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	tk := s.issue(productKey(productID))

	confirmed, err := s.backend.AddItem(ctx, productID, quantity)
	if err != nil {
		return s.backendErr(err, "add item")
	}
	if err := s.validate.Struct(confirmed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend returned invalid cart line")
	}

	ctx = s.log.WithLineID(s.log.WithProductID(ctx, productID), confirmed.ID)
	applied := s.commit(tk, func() {
		if s.store.Has(confirmed.ID) {
			s.store.UpdateQuantity(confirmed.ID, confirmed.Quantity)
		} else {
			s.store.AddItem(confirmed)
		}
	})
	if !applied {
		s.log.Debug(ctx, "discarding stale add response")
		return nil
	}

	s.log.Info(ctx, "cart line added")
	return nil
}

// SetQuantity asks the backend for the new quantity and applies the
// confirmed value to the store.
func (s *Service) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	if lineID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	tk := s.issue(lineKey(lineID))

	confirmed, err := s.backend.UpdateItem(ctx, lineID, quantity)
	if err != nil {
		return s.backendErr(err, "update item")
	}

	ctx = s.log.WithLineID(ctx, lineID)
	if !s.commit(tk, func() { s.store.UpdateQuantity(lineID, confirmed) }) {
		s.log.Debug(ctx, "discarding stale quantity response")
		return nil
	}

	s.log.Info(ctx, "cart line quantity updated")
	return nil
}

// Remove deletes the line on the backend, then locally.
func (s *Service) Remove(ctx context.Context, lineID string) error {
	if lineID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}

	tk := s.issue(lineKey(lineID))

	if err := s.backend.RemoveItem(ctx, lineID); err != nil {
		return s.backendErr(err, "remove item")
	}

	ctx = s.log.WithLineID(ctx, lineID)
	if !s.commit(tk, func() { s.store.RemoveItem(lineID) }) {
		s.log.Debug(ctx, "discarding stale remove response")
		return nil
	}

	s.log.Info(ctx, "cart line removed")
	return nil
}

// Logout clears the local cart and invalidates every in-flight response.
// The backend keeps its copy; the next login refreshes from it.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	s.seq = make(map[string]uint64)
	s.store.Clear()
	s.mu.Unlock()

	s.log.Info(ctx, "cart cleared on logout")
}

// backendErr keeps already-coded backend errors intact and wraps everything
// else as a dependency failure.
func (s *Service) backendErr(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
