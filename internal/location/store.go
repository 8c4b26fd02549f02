// Package location keeps the geographic point of every job in a spatial
// index backed by a persistent table.
package location

import (
	"context"
	"fmt"
	"log"
	"sync"

	"nearby-jobs/internal/domain/geo"

	"github.com/google/uuid"
	"github.com/tidwall/rtree"
)

// Persistence is the durable side of the store. The index is rebuilt from
// it on startup and reconciled against it periodically.
type Persistence interface {
	UpsertLocation(ctx context.Context, ownerID uuid.UUID, p geo.Point) error
	DeleteLocation(ctx context.Context, ownerID uuid.UUID) error
	GetLocation(ctx context.Context, ownerID uuid.UUID) (geo.Point, bool, error)
	ListLocations(ctx context.Context, fn func(ownerID uuid.UUID, p geo.Point) error) error
}

type Store struct {
	mu     sync.RWMutex
	tree   *rtree.RTreeG[uuid.UUID]
	points map[uuid.UUID]geo.Point

	// While a Load is reading persistence, every index change is also
	// journaled so it can be replayed onto the rebuilt index.
	loadMu  sync.Mutex
	loading bool
	journal []change

	persist Persistence
	logger  *log.Logger
}

type change struct {
	id      uuid.UUID
	point   geo.Point
	removed bool
}

func NewStore(persist Persistence, logger *log.Logger) *Store {
	return &Store{
		tree:    &rtree.RTreeG[uuid.UUID]{},
		points:  make(map[uuid.UUID]geo.Point),
		persist: persist,
		logger:  logger,
	}
}

// Insert persists p for ownerID and indexes it, replacing any previous point.
func (s *Store) Insert(ctx context.Context, p geo.Point, ownerID uuid.UUID) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if ownerID == uuid.Nil {
		return fmt.Errorf("location insert: nil owner id")
	}
	if s.persist != nil {
		if err := s.persist.UpsertLocation(ctx, ownerID, p); err != nil {
			return fmt.Errorf("location insert: %w", err)
		}
	}

	s.mu.Lock()
	s.index(ownerID, p)
	s.mu.Unlock()
	return nil
}

func (s *Store) Remove(ctx context.Context, ownerID uuid.UUID) error {
	if s.persist != nil {
		if err := s.persist.DeleteLocation(ctx, ownerID); err != nil {
			return fmt.Errorf("location remove: %w", err)
		}
	}

	s.mu.Lock()
	s.unindex(ownerID)
	s.mu.Unlock()
	return nil
}

// Query returns the owners whose point lies within radiusKm of center.
// The result is unordered.
func (s *Store) Query(center geo.Point, radiusKm float64) ([]uuid.UUID, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if err := geo.ValidateRadius(radiusKm); err != nil {
		return nil, err
	}

	c := geo.Circle{Center: center, RadiusKm: radiusKm}
	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range c.Bounds() {
		s.tree.Search(b.Min(), b.Max(), func(_, _ [2]float64, id uuid.UUID) bool {
			if _, ok := seen[id]; ok {
				return true
			}
			p, ok := s.points[id]
			if !ok || !c.Contains(p) {
				return true
			}
			seen[id] = struct{}{}
			out = append(out, id)
			return true
		})
	}
	return out, nil
}

// QueryBox returns the owners whose point lies inside b.
func (s *Store) QueryBox(b geo.Box) ([]uuid.UUID, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	out := make([]uuid.UUID, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.tree.Search(b.Min(), b.Max(), func(_, _ [2]float64, id uuid.UUID) bool {
		out = append(out, id)
		return true
	})
	return out, nil
}

func (s *Store) Point(ownerID uuid.UUID) (geo.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.points[ownerID]
	return p, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Load rebuilds the whole index from persistence and swaps it in. Writes
// that land while persistence is being read are replayed on top of the
// rebuilt index, so none of them is lost by the swap.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	s.loading = true
	s.journal = nil
	s.mu.Unlock()

	tree := &rtree.RTreeG[uuid.UUID]{}
	points := make(map[uuid.UUID]geo.Point)
	err := s.persist.ListLocations(ctx, func(id uuid.UUID, p geo.Point) error {
		if err := p.Validate(); err != nil {
			if s.logger != nil {
				s.logger.Printf("[Location] Skipping invalid point owner=%s err=%v", id, err)
			}
			return nil
		}
		indexInto(tree, points, id, p)
		return nil
	})

	s.mu.Lock()
	journal := s.journal
	s.loading = false
	s.journal = nil
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("location load: %w", err)
	}
	for _, c := range journal {
		if c.removed {
			unindexInto(tree, points, c.id)
		} else {
			indexInto(tree, points, c.id, c.point)
		}
	}
	s.tree = tree
	s.points = points
	n := len(points)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Printf("[Location] Index loaded points=%d replayed=%d", n, len(journal))
	}
	return nil
}

// Refresh re-reads a single owner from persistence. Used when another
// instance reports a change.
func (s *Store) Refresh(ctx context.Context, ownerID uuid.UUID) error {
	if s.persist == nil {
		return nil
	}
	p, ok, err := s.persist.GetLocation(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("location refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.unindex(ownerID)
		return nil
	}
	s.index(ownerID, p)
	return nil
}

// index and unindex require s.mu held for writing.
func (s *Store) index(id uuid.UUID, p geo.Point) {
	if s.loading {
		s.journal = append(s.journal, change{id: id, point: p})
	}
	indexInto(s.tree, s.points, id, p)
}

func (s *Store) unindex(id uuid.UUID) {
	if s.loading {
		s.journal = append(s.journal, change{id: id, removed: true})
	}
	unindexInto(s.tree, s.points, id)
}

func indexInto(tree *rtree.RTreeG[uuid.UUID], points map[uuid.UUID]geo.Point, id uuid.UUID, p geo.Point) {
	if old, ok := points[id]; ok {
		if old == p {
			return
		}
		tree.Delete(pointRect(old), pointRect(old), id)
	}
	tree.Insert(pointRect(p), pointRect(p), id)
	points[id] = p
}

func unindexInto(tree *rtree.RTreeG[uuid.UUID], points map[uuid.UUID]geo.Point, id uuid.UUID) {
	old, ok := points[id]
	if !ok {
		return
	}
	tree.Delete(pointRect(old), pointRect(old), id)
	delete(points, id)
}

func pointRect(p geo.Point) [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}
