package config

import (
	"maps"
	"sync"

	"github.com/matzehuels/dsgviz/pkg/scenegraph"
)

// Store publishes configuration snapshots. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	snap      Snapshot
	listeners []func()
}

// NewStore creates a store holding a copy of initial. The initial snapshot
// is not validated; callers loading user input should call
// [Snapshot.Validate] first.
func NewStore(initial Snapshot) *Store {
	snap := initial.Clone()
	if snap.Layers == nil {
		snap.Layers = make(map[scenegraph.LayerID]LayerConfig)
	}
	return &Store{snap: snap}
}

// Snapshot returns the current configuration. The returned Layers map is
// shared and must not be modified.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// OnChange registers fn to be called after every successful write.
// Listeners run on the writing goroutine, outside the store lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetVisualizer replaces the shared settings.
func (s *Store) SetVisualizer(vc VisualizerConfig) error {
	if err := ValidateVisualizerConfig(vc); err != nil {
		return err
	}
	s.publish(func(next *Snapshot) { next.Visualizer = vc })
	return nil
}

// SetLayer replaces the config of one layer, registering it if needed.
func (s *Store) SetLayer(id scenegraph.LayerID, lc LayerConfig) error {
	if err := ValidateLayerConfig(lc); err != nil {
		return err
	}
	s.publish(func(next *Snapshot) {
		next.Layers = maps.Clone(next.Layers)
		next.Layers[id] = lc
	})
	return nil
}

// UpdateVisualizer applies fn to the current shared settings and stores
// the result. The read, fn and the write happen under the store lock, so
// concurrent updates never lose each other's changes. Nothing is stored
// when fn fails or the result does not validate.
func (s *Store) UpdateVisualizer(fn func(*VisualizerConfig) error) (VisualizerConfig, error) {
	var vc VisualizerConfig
	err := s.update(func(next *Snapshot) error {
		vc = next.Visualizer
		if err := fn(&vc); err != nil {
			return err
		}
		if err := ValidateVisualizerConfig(vc); err != nil {
			return err
		}
		next.Visualizer = vc
		return nil
	})
	return vc, err
}

// UpdateLayer is [Store.UpdateVisualizer] for one layer. fn starts from
// [DefaultLayer] when id has no config yet.
func (s *Store) UpdateLayer(id scenegraph.LayerID, fn func(*LayerConfig) error) (LayerConfig, error) {
	var lc LayerConfig
	err := s.update(func(next *Snapshot) error {
		cur, ok := next.Layer(id)
		if !ok {
			cur = DefaultLayer(id)
		}
		if err := fn(&cur); err != nil {
			return err
		}
		if err := ValidateLayerConfig(cur); err != nil {
			return err
		}
		next.Layers = maps.Clone(next.Layers)
		next.Layers[id] = cur
		lc = cur
		return nil
	})
	return lc, err
}

// Replace swaps in a whole snapshot.
func (s *Store) Replace(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap = snap.Clone()
	if snap.Layers == nil {
		snap.Layers = make(map[scenegraph.LayerID]LayerConfig)
	}
	s.publish(func(next *Snapshot) { *next = snap })
	return nil
}

func (s *Store) publish(apply func(next *Snapshot)) {
	_ = s.update(func(next *Snapshot) error {
		apply(next)
		return nil
	})
}

// update runs apply on a copy of the snapshot under the lock and swaps it
// in unless apply fails. Listeners run after the lock is released.
func (s *Store) update(apply func(next *Snapshot) error) error {
	s.mu.Lock()
	next := s.snap
	if err := apply(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.snap = next
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}
