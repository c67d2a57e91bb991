// Package store holds the users, products and orders collections in memory
// and writes the whole set through a Gateway after every mutation.
//
// All mutations are serialized: the lock is held from reading the current
// state until the new snapshot is on disk. State is copy-on-write, so a
// failed save leaves the in-memory collections exactly as they were.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"shop-api/internal/id"
	"shop-api/internal/models"
	"shop-api/internal/telemetry"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrPersist           = errors.New("persist snapshot")
)

type Collection string

const (
	Users    Collection = "users"
	Products Collection = "products"
	Orders   Collection = "orders"
)

const wishlistField = "wishlist"

// Wishlist toggle outcomes.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

type Store struct {
	mu      sync.RWMutex
	data    map[Collection][]models.Record
	gateway Gateway
	newID   id.Generator
}

type Option func(*Store)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen id.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// Open loads the snapshot through gw. A load error is returned unchanged.
func Open(gw Gateway, opts ...Option) (*Store, error) {
	snap, err := gw.Load()
	if err != nil {
		return nil, err
	}

	s := &Store{
		gateway: gw,
		newID:   id.New,
		data: map[Collection][]models.Record{
			Users:    snap.Users,
			Products: snap.Products,
			Orders:   snap.Orders,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns the collection in insertion order. The slice and records are copies.
func (s *Store) List(c Collection) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.data[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	out := make([]models.Record, len(records))
	for i, r := range records {
		out[i] = clone(r)
	}
	return out, nil
}

func (s *Store) FindByID(c Collection, recordID string) (models.Record, error) {
	return s.FindFirst(c, "id", recordID)
}

// FindFirst returns the first record whose string field equals value.
// Records where the field is missing or not a string never match.
func (s *Store) FindFirst(c Collection, field, value string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.data[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	if i := indexOf(records, field, value); i >= 0 {
		return clone(records[i]), nil
	}
	return nil, ErrNotFound
}

// Insert appends fields as a new record under a freshly generated id.
// Any "id" in fields is replaced.
func (s *Store) Insert(ctx context.Context, c Collection, fields models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.data[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}

	record := clone(fields)
	record["id"] = s.uniqueID(records)

	next := make([]models.Record, len(records), len(records)+1)
	copy(next, records)
	next = append(next, record)

	if err := s.commit(ctx, c, next); err != nil {
		return nil, err
	}
	return clone(record), nil
}

// Update shallow-merges partial into the record. Fields absent from partial
// are kept; the record id cannot be changed.
func (s *Store) Update(ctx context.Context, c Collection, recordID string, partial models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.data[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	i := indexOf(records, "id", recordID)
	if i < 0 {
		return nil, ErrNotFound
	}

	merged := clone(records[i])
	maps.Copy(merged, partial)
	merged["id"] = records[i]["id"]

	next := slices.Clone(records)
	next[i] = merged

	if err := s.commit(ctx, c, next); err != nil {
		return nil, err
	}
	return clone(merged), nil
}

func (s *Store) Delete(ctx context.Context, c Collection, recordID string) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, ok := s.data[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}
	i := indexOf(records, "id", recordID)
	if i < 0 {
		return nil, ErrNotFound
	}

	removed := records[i]
	next := slices.Delete(slices.Clone(records), i, i+1)

	if err := s.commit(ctx, c, next); err != nil {
		return nil, err
	}
	return clone(removed), nil
}

// ToggleWishlist adds productID to the user's wishlist, or removes it if it
// is already there. A missing or non-array wishlist counts as empty.
func (s *Store) ToggleWishlist(ctx context.Context, userID, productID string) (string, []any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.data[Users]
	i := indexOf(users, "id", userID)
	if i < 0 {
		return "", nil, ErrNotFound
	}

	current, _ := users[i][wishlistField].([]any)
	wishlist := slices.Clone(current)
	if wishlist == nil {
		wishlist = []any{}
	}

	action := ActionAdded
	if pos := slices.IndexFunc(wishlist, func(v any) bool { return v == productID }); pos >= 0 {
		wishlist = slices.Delete(wishlist, pos, pos+1)
		action = ActionRemoved
	} else {
		wishlist = append(wishlist, productID)
	}

	user := clone(users[i])
	user[wishlistField] = wishlist

	next := slices.Clone(users)
	next[i] = user

	if err := s.commit(ctx, Users, next); err != nil {
		return "", nil, err
	}
	return action, slices.Clone(wishlist), nil
}

// Stats is computed from the live collections on every call. Orders whose
// total is missing or not a number contribute nothing to revenue.
func (s *Store) Stats() models.StatsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var revenue float64
	for _, order := range s.data[Orders] {
		revenue += number(order["total"])
	}
	return models.StatsResponse{
		TotalUsers:    len(s.data[Users]),
		TotalProducts: len(s.data[Products]),
		TotalOrders:   len(s.data[Orders]),
		Revenue:       revenue,
	}
}

// commit persists the state with c replaced by next and swaps it in only
// if the write succeeded. Must be called with s.mu held.
func (s *Store) commit(ctx context.Context, c Collection, next []models.Record) error {
	snap := &models.Snapshot{
		Users:    s.data[Users],
		Products: s.data[Products],
		Orders:   s.data[Orders],
	}
	switch c {
	case Users:
		snap.Users = next
	case Products:
		snap.Products = next
	case Orders:
		snap.Orders = next
	}

	start := time.Now()
	err := s.gateway.Save(ctx, snap)
	telemetry.ObserveSnapshotWrite(time.Since(start), err)
	if err != nil {
		slog.Error("Snapshot write failed", "collection", c, "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.data[c] = next
	return nil
}

func (s *Store) uniqueID(records []models.Record) string {
	for {
		candidate := s.newID()
		if indexOf(records, "id", candidate) < 0 {
			return candidate
		}
	}
}

func indexOf(records []models.Record, field, value string) int {
	return slices.IndexFunc(records, func(r models.Record) bool {
		v, ok := r[field].(string)
		return ok && v == value
	})
}

func clone(r models.Record) models.Record {
	out := maps.Clone(r)
	if out == nil {
		out = models.Record{}
	}
	return out
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
