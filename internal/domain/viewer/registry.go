package viewer

import (
	"context"
	"expvar"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcu-prisar/heritage-web/internal/domain/catalog"
)

var viewerInstancesGauge = expvar.NewInt("viewer_instances")

// DefaultMaxViewers caps the viewers mounted at once across all clients
const DefaultMaxViewers = 500

// ModelFinder resolves slugs to dataset records
type ModelFinder interface {
	FindBySlug(slug string) (catalog.ModelRecord, bool)
}

type entry struct {
	viewer   *Viewer
	lastSeen time.Time
	conns    int
}

// Registry holds the mounted viewers by id
type Registry struct {
	finder  ModelFinder
	opts    Options
	idleTTL time.Duration
	max     int
	now     func() time.Time

	mu      sync.Mutex
	viewers map[uuid.UUID]*entry
	gone    map[uuid.UUID]time.Time
}

// NewRegistry creates a registry. opts is applied to every mounted viewer.
func NewRegistry(finder ModelFinder, opts Options, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry{
		finder:  finder,
		opts:    opts,
		idleTTL: idleTTL,
		max:     DefaultMaxViewers,
		now:     time.Now,
		viewers: make(map[uuid.UUID]*entry),
		gone:    make(map[uuid.UUID]time.Time),
	}
}

// SetMaxViewers changes the cap on mounted viewers. Values below one keep the default.
func (r *Registry) SetMaxViewers(n int) {
	if n < 1 {
		n = DefaultMaxViewers
	}
	r.mu.Lock()
	r.max = n
	r.mu.Unlock()
}

// Mount creates a viewer for slug and starts loading its asset
func (r *Registry) Mount(ctx context.Context, slug string) (*Viewer, error) {
	rec, ok := r.finder.FindBySlug(slug)
	if !ok {
		return nil, ErrModelNotFound
	}

	r.mu.Lock()
	if len(r.viewers) >= r.max {
		r.mu.Unlock()
		log.Warn().Int("max", r.max).Str("slug", slug).Msg("Viewer limit reached")
		return nil, ErrTooManyViewers
	}
	v := New(rec.Slug, rec.Title, r.opts)
	r.viewers[v.ID()] = &entry{viewer: v, lastSeen: r.now()}
	r.mu.Unlock()
	viewerInstancesGauge.Add(1)

	log.Debug().Str("viewer_id", v.ID().String()).Str("slug", slug).Msg("Viewer mounted")

	v.Initialize(rec.ModelPath)
	return v, nil
}

// Get returns a mounted viewer and marks it as active
func (r *Registry) Get(id uuid.UUID) (*Viewer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.viewers[id]
	if !ok {
		if _, wasMounted := r.gone[id]; wasMounted {
			return nil, ErrViewerGone
		}
		return nil, ErrViewerNotFound
	}
	e.lastSeen = r.now()
	return e.viewer, nil
}

// Attach counts a live connection on a viewer so it is not swept
func (r *Registry) Attach(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.viewers[id]; ok {
		e.conns++
		e.lastSeen = r.now()
	}
}

// Detach releases a connection counted by Attach
func (r *Registry) Detach(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.viewers[id]; ok && e.conns > 0 {
		e.conns--
		e.lastSeen = r.now()
	}
}

// Unmount destroys a viewer and abandons its in-flight load
func (r *Registry) Unmount(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.viewers[id]
	if !ok {
		_, wasMounted := r.gone[id]
		r.mu.Unlock()
		if wasMounted {
			return ErrViewerGone
		}
		return ErrViewerNotFound
	}
	delete(r.viewers, id)
	r.gone[id] = r.now()
	r.mu.Unlock()

	r.destroy(e.viewer)
	return nil
}

func (r *Registry) destroy(v *Viewer) {
	v.Close()
	viewerInstancesGauge.Add(-1)
	if r.opts.Publisher != nil {
		r.opts.Publisher.Publish(v.ID(), &Frame{Type: FrameClosed})
	}
	log.Debug().Str("viewer_id", v.ID().String()).Str("slug", v.Slug()).Msg("Viewer unmounted")
}

// Sweep unmounts viewers with no connections that were idle longer than the TTL
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var idle []*Viewer
	for id, e := range r.viewers {
		if e.conns == 0 && now.Sub(e.lastSeen) > r.idleTTL {
			idle = append(idle, e.viewer)
			delete(r.viewers, id)
			r.gone[id] = now
		}
	}
	for id, at := range r.gone {
		if now.Sub(at) > r.idleTTL {
			delete(r.gone, id)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		r.destroy(v)
	}
	if len(idle) > 0 {
		log.Info().Int("count", len(idle)).Msg("Swept idle viewers")
	}
	return len(idle)
}

// Run sweeps idle viewers until ctx is done, then unmounts everything
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := make([]*Viewer, 0, len(r.viewers))
	for id, e := range r.viewers {
		all = append(all, e.viewer)
		delete(r.viewers, id)
	}
	r.mu.Unlock()

	for _, v := range all {
		r.destroy(v)
	}
}

// Count returns the number of mounted viewers
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers)
}
