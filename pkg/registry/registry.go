// Package registry loads decoded models from the artifact directory on first use
// and keeps them in memory for the lifetime of the process.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
	"kubegems.io/modelsrv/pkg/decode"
	"kubegems.io/modelsrv/pkg/metrics"
	"kubegems.io/modelsrv/pkg/types"
)

type State string

const (
	StateNotLoaded State = "not-loaded"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateFailed    State = "failed"
)

type LoadedModel struct {
	Name     string        `json:"name"`
	Format   types.Format  `json:"format"`
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Digest   digest.Digest `json:"digest"`
	LoadedAt time.Time     `json:"loadedAt"`
	Duration time.Duration `json:"duration"`
	Value    any           `json:"-"`
}

// entry is the single load of one name. done is closed once model or err is set.
// A stale entry was invalidated while loading, it is dropped when the load ends.
type entry struct {
	done    chan struct{}
	started time.Time
	stale   bool
	model   *LoadedModel
	err     error
}

func (e *entry) finished() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

type Registry struct {
	manifest types.Manifest
	dir      string
	decoders map[types.Format]decode.Decoder
	disabled map[string]bool

	mu      sync.Mutex
	entries map[string]*entry
}

type Option func(*Registry)

// WithDecoder replaces the decoder used for format.
func WithDecoder(format types.Format, dec decode.Decoder) Option {
	return func(r *Registry) {
		r.decoders[format] = dec
	}
}

// WithDisabled turns off optional entries, Get reports them as optional_absent.
// Required names are ignored.
func WithDisabled(names ...string) Option {
	return func(r *Registry) {
		for _, name := range names {
			r.disabled[name] = true
		}
	}
}

func New(manifest types.Manifest, dir string, opts ...Option) *Registry {
	r := &Registry{
		manifest: manifest,
		dir:      dir,
		decoders: decode.Defaults(),
		disabled: map[string]bool{},
		entries:  map[string]*entry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Manifest() types.Manifest {
	return r.manifest
}

func (r *Registry) Dir() string {
	return r.dir
}

// Get returns the decoded model, loading it on first use. Concurrent callers of
// the same name share one load. Success and failure are both cached until
// Invalidate. ctx only bounds the wait of this caller, the load itself runs to
// completion.
func (r *Registry) Get(ctx context.Context, name string) (*LoadedModel, error) {
	spec, ok := r.manifest.Lookup(name)
	if !ok {
		return nil, &UnavailableError{Name: name, Reason: ReasonUnknownModel}
	}
	if spec.Optional && r.disabled[name] {
		return nil, &UnavailableError{Name: name, Reason: ReasonOptionalAbsent, Optional: true}
	}

	var e *entry
	for e == nil {
		r.mu.Lock()
		cur, ok := r.entries[name]
		switch {
		case !ok:
			e = &entry{done: make(chan struct{}), started: time.Now()}
			r.entries[name] = e
			go r.load(logr.NewContext(context.Background(), logr.FromContextOrDiscard(ctx)), spec, e)
		case !cur.stale:
			e = cur
		}
		r.mu.Unlock()

		if e == nil {
			// one load per name, wait for the invalidated one to finish first
			select {
			case <-cur.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	select {
	case <-e.done:
		return e.model, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) load(ctx context.Context, spec types.Entry, e *entry) {
	log := logr.FromContextOrDiscard(ctx).WithValues("model", spec.Name, "file", spec.Filename())

	model, err := r.read(ctx, spec)
	duration := time.Since(e.started)
	metrics.ModelLoadDuration.WithLabelValues(spec.Name).Observe(duration.Seconds())

	r.mu.Lock()
	e.model, e.err = model, err
	close(e.done)
	if r.entries[spec.Name] == e {
		if e.stale {
			delete(r.entries, spec.Name)
		} else if err == nil {
			metrics.ModelsLoaded.Inc()
		}
	}
	r.mu.Unlock()

	if err != nil {
		metrics.ModelLoads.WithLabelValues(spec.Name, "failed").Inc()
		log.Error(err, "load model")
		return
	}
	metrics.ModelLoads.WithLabelValues(spec.Name, "loaded").Inc()
	log.Info("model loaded", "size", model.Size, "duration", duration.String())
}

func (r *Registry) read(ctx context.Context, spec types.Entry) (*LoadedModel, error) {
	filename := filepath.Join(r.dir, spec.Filename())
	unavailable := func(reason Reason, err error) error {
		return &UnavailableError{Name: spec.Name, Reason: reason, Optional: spec.Optional, Cause: err}
	}

	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, unavailable(ReasonNotFound, err)
		}
		return nil, unavailable(ReasonDecodeFailed, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, unavailable(ReasonDecodeFailed, err)
	}
	dec, ok := r.decoders[spec.Format]
	if !ok {
		return nil, unavailable(ReasonDecodeFailed, fmt.Errorf("no decoder for format %s", spec.Format))
	}
	start := time.Now()
	val, err := decode.Safe(ctx, dec, f, fi.Size())
	if err != nil {
		return nil, unavailable(ReasonDecodeFailed, err)
	}

	dgst := spec.Digest
	if dgst == "" {
		if dgst, err = digest.FromReader(io.NewSectionReader(f, 0, fi.Size())); err != nil {
			return nil, unavailable(ReasonDecodeFailed, err)
		}
	}
	return &LoadedModel{
		Name:     spec.Name,
		Format:   spec.Format,
		Path:     filename,
		Size:     fi.Size(),
		Digest:   dgst,
		LoadedAt: time.Now(),
		Duration: time.Since(start),
		Value:    val,
	}, nil
}

// Invalidate drops the cached outcome of name so the next Get loads it again.
// Callers already waiting on an in-flight load still receive its result, and
// the next load only starts once that one has finished.
func (r *Registry) Invalidate(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return false
	}
	if !e.finished() {
		e.stale = true
		return true
	}
	delete(r.entries, name)
	if e.finished() && e.err == nil {
		metrics.ModelsLoaded.Dec()
	}
	return true
}

// Warm loads names, or every enabled entry when none are given. Optional
// models failing to load are logged, a required failure is returned.
func (r *Registry) Warm(ctx context.Context, names ...string) error {
	log := logr.FromContextOrDiscard(ctx)
	if len(names) == 0 {
		for _, e := range r.manifest.Entries() {
			if !(e.Optional && r.disabled[e.Name]) {
				names = append(names, e.Name)
			}
		}
	}
	eg := errgroup.Group{}
	for _, name := range names {
		name := name
		eg.Go(func() error {
			_, err := r.Get(ctx, name)
			if ue, ok := AsUnavailable(err); ok && ue.Degradable() {
				log.Info("optional model unavailable", "model", name, "reason", ue.Reason)
				return nil
			}
			return err
		})
	}
	return eg.Wait()
}
