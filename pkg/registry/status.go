package registry

import (
	"os"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"
	"kubegems.io/modelsrv/pkg/types"
)

type ModelStatus struct {
	Name     string        `json:"name"`
	File     string        `json:"file"`
	Format   types.Format  `json:"format"`
	Optional bool          `json:"optional"`
	Disabled bool          `json:"disabled,omitempty"`
	OnDisk   bool          `json:"onDisk"`
	FileSize int64         `json:"fileSize,omitempty"`
	State    State         `json:"state"`
	Digest   digest.Digest `json:"digest,omitempty"`
	LoadedAt *time.Time    `json:"loadedAt,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Status reports every manifest entry in manifest order.
func (r *Registry) Status() []ModelStatus {
	r.mu.Lock()
	entries := make(map[string]*entry, len(r.entries))
	for name, e := range r.entries {
		entries[name] = e
	}
	r.mu.Unlock()

	ret := []ModelStatus{}
	for _, spec := range r.manifest.Entries() {
		status := ModelStatus{
			Name:     spec.Name,
			File:     spec.Filename(),
			Format:   spec.Format,
			Optional: spec.Optional,
			Disabled: spec.Optional && r.disabled[spec.Name],
			State:    StateNotLoaded,
			Digest:   spec.Digest,
		}
		if fi, err := os.Stat(filepath.Join(r.dir, spec.Filename())); err == nil && !fi.IsDir() {
			status.OnDisk, status.FileSize = true, fi.Size()
		}
		if e, ok := entries[spec.Name]; ok {
			r.fillState(&status, e)
		}
		ret = append(ret, status)
	}
	return ret
}

func (r *Registry) fillState(status *ModelStatus, e *entry) {
	if !e.finished() {
		status.State = StateLoading
		return
	}
	if e.err != nil {
		status.State, status.Error = StateFailed, e.err.Error()
		return
	}
	status.State = StateLoaded
	status.Digest = e.model.Digest
	loadedAt := e.model.LoadedAt
	status.LoadedAt = &loadedAt
}
