package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"kubegems.io/modelsrv/internal/fixture"
	"kubegems.io/modelsrv/pkg/decode"
	"kubegems.io/modelsrv/pkg/location"
	"kubegems.io/modelsrv/pkg/provision"
	"kubegems.io/modelsrv/pkg/source"
	"kubegems.io/modelsrv/pkg/types"
)

func TestRegistry_AfterProvision(t *testing.T) {
	scaler := types.Entry{Name: "scaler", RemoteName: "scaler.pkl", Format: types.FormatPickle}
	manifest := types.MustManifest(modelEntry, scaler, cnnEntry, supportEntry)

	// the mirror serves every required artifact, the optional support set is missing
	mirror := t.TempDir()
	if err := fixture.WriteEntries(mirror, manifest.Required()...); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(mirror)))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "models")
	p := provision.New(&provision.Options{
		Dir:            dir,
		Workers:        2,
		Attempts:       2,
		RetryDelay:     metav1.Duration{Duration: time.Millisecond},
		AttemptTimeout: metav1.Duration{Duration: 5 * time.Second},
	}, source.NewDelegate())

	ctx := context.Background()
	report, err := p.EnsureAllPresent(ctx, manifest, location.DirectURL{Base: srv.URL})
	if err != nil {
		t.Fatalf("EnsureAllPresent() error = %v", err)
	}
	if got := report.Count(provision.OutcomeDownloaded); got != 3 {
		t.Errorf("downloaded = %d, want 3", got)
	}
	if res, _ := report.Lookup(supportEntry.Name); res.Outcome != provision.OutcomeFailed || res.Reason != provision.ReasonNotFound {
		t.Errorf("support = %s/%s, want failed/not_found", res.Outcome, res.Reason)
	}

	r := New(manifest, dir)
	for _, e := range manifest.Required() {
		model, err := r.Get(ctx, e.Name)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", e.Name, err)
		}
		if model.Size == 0 || model.Digest == "" {
			t.Errorf("Get(%s) = %+v", e.Name, model)
		}
	}
	model, _ := r.Get(ctx, modelEntry.Name)
	if _, ok := model.Value.(*decode.Pickle).Value.(*decode.Object); !ok {
		t.Errorf("model value = %T, want an unpickled estimator", model.Value.(*decode.Pickle).Value)
	}

	_, err = r.Get(ctx, supportEntry.Name)
	ue, ok := AsUnavailable(err)
	if !ok {
		t.Fatalf("Get(%s) error = %v, want UnavailableError", supportEntry.Name, err)
	}
	if ue.Reason != ReasonNotFound || !ue.Degradable() {
		t.Errorf("Get(%s) = %s optional=%v, want degradable not_found", supportEntry.Name, ue.Reason, ue.Optional)
	}
}
