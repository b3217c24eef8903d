// Package provision makes sure every artifact of a manifest exists in the local directory.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	modelxerrors "kubegems.io/modelsrv/pkg/errors"
	"kubegems.io/modelsrv/pkg/location"
	"kubegems.io/modelsrv/pkg/metrics"
	"kubegems.io/modelsrv/pkg/progress"
	"kubegems.io/modelsrv/pkg/source"
	"kubegems.io/modelsrv/pkg/types"
	"kubegems.io/modelsrv/pkg/verify"
)

type Provisioner struct {
	Options  Options
	Fetcher  source.Fetcher
	Progress *progress.MultiBar // optional
}

func New(options *Options, fetcher source.Fetcher) *Provisioner {
	return &Provisioner{Options: *options, Fetcher: fetcher}
}

// EnsureAllPresent provisions every entry of manifest into the artifact directory.
// Each entry produces exactly one result, a failing entry never cancels the others.
// The returned error is non-nil when a required entry could not be provisioned.
func (p *Provisioner) EnsureAllPresent(ctx context.Context, manifest types.Manifest, strategy location.Strategy) (*Report, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("dir", p.Options.Dir, "strategy", strategy.String())
	start := time.Now()

	if err := os.MkdirAll(p.Options.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory %s: %w", p.Options.Dir, err)
	}

	entries := manifest.Entries()
	results := make([]Result, len(entries))

	eg := errgroup.Group{}
	eg.SetLimit(p.workers())
	for i := range entries {
		i, entry := i, entries[i]
		eg.Go(func() error {
			results[i] = p.ensure(logr.NewContext(ctx, log), entry, strategy)
			return nil
		})
	}
	_ = eg.Wait()

	report := &Report{Results: results, Duration: time.Since(start)}
	metrics.ProvisionDuration.Observe(report.Duration.Seconds())

	for _, res := range results {
		metrics.ProvisionResults.WithLabelValues(res.Entry.Name, string(res.Outcome), string(res.Reason)).Inc()
		if res.Outcome == OutcomeFailed && res.Entry.Optional {
			log.Info("optional artifact unavailable, dependent features are disabled", "entry", res.Entry.Name, "reason", res.Reason, "error", res.Err.Error())
		}
	}
	log.Info("provisioning finished",
		"downloaded", report.Count(OutcomeDownloaded),
		"skipped", report.Count(OutcomeSkipped),
		"failed", report.Count(OutcomeFailed),
		"duration", report.Duration.String(),
	)
	if err := report.Err(); err != nil {
		log.Error(err, "provisioning failed")
		return report, err
	}
	return report, nil
}

func (p *Provisioner) ensure(ctx context.Context, entry types.Entry, strategy location.Strategy) Result {
	log := logr.FromContextOrDiscard(ctx).WithValues("entry", entry.Name, "file", entry.Filename())
	ctx = logr.NewContext(ctx, log)

	result := Result{Entry: entry, State: StateAbsent}
	filename := filepath.Join(p.Options.Dir, entry.Filename())
	bar := p.Progress.Add(entry.Filename(), "checking")

	fail := func(reason Reason, err error) Result {
		result.Outcome, result.Reason, result.Err = OutcomeFailed, reason, err
		bar.Finish("failed: " + string(reason))
		if entry.Optional {
			log.V(1).Info("optional artifact failed", "reason", reason, "error", err.Error())
		} else {
			log.Error(err, "artifact failed", "reason", reason)
		}
		return result
	}

	present, err := p.checkLocal(ctx, filename, entry)
	if err != nil {
		return fail(ReasonVerifyFailed, err)
	}
	if present {
		log.V(1).Info("artifact present, skipping")
		result.Outcome, result.State = OutcomeSkipped, StatePresentVerified
		bar.Finish("present")
		return result
	}

	loc, err := strategy.Locate(entry)
	if err != nil {
		return fail(ReasonResolveFailed, err)
	}
	result.Location = loc
	result.State = StateDownloading

	n, attempts, err := p.download(ctx, filename, entry, loc, bar)
	result.Attempts = attempts
	if err != nil {
		result.State = StateAbsent
		return fail(reasonOf(ctx, err), err)
	}
	metrics.DownloadedBytes.Add(float64(n))
	log.Info("artifact downloaded", "bytes", n, "attempts", attempts)
	result.Outcome, result.State, result.Bytes = OutcomeDownloaded, StatePresentVerified, n
	bar.Finish("done")
	return result
}

// checkLocal reports whether a verified copy already exists. A copy failing
// verification is removed so it is downloaded again.
func (p *Provisioner) checkLocal(ctx context.Context, filename string, entry types.Entry) (bool, error) {
	fi, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if fi.IsDir() {
		return false, fmt.Errorf("%s is a directory", filename)
	}
	verr := verify.File(ctx, filename, entry)
	if verr == nil {
		return true, nil
	}
	logr.FromContextOrDiscard(ctx).Info("local artifact failed verification, downloading again", "error", verr.Error())
	if err := os.Remove(filename); err != nil {
		return false, fmt.Errorf("remove corrupt artifact: %w", err)
	}
	return false, nil
}

func (p *Provisioner) download(ctx context.Context, filename string, entry types.Entry, loc location.Location, bar *progress.Bar) (int64, int, error) {
	log := logr.FromContextOrDiscard(ctx)

	var (
		n        int64
		attempts int
	)
	err := retry.Do(func() error {
		attempts++
		metrics.DownloadAttempts.WithLabelValues(entry.Name).Inc()
		var err error
		n, err = p.downloadOnce(ctx, filename, entry, loc, bar)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(uint(p.attempts())),
		retry.Delay(p.Options.RetryDelay.Duration),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && retryable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Info("download attempt failed", "attempt", n+1, "error", err.Error())
		}),
	)
	return n, attempts, err
}

// downloadOnce streams into a temp file next to the target and renames it into
// place after verification, readers never observe a partial file.
func (p *Provisioner) downloadOnce(ctx context.Context, filename string, entry types.Entry, loc location.Location, bar *progress.Bar) (int64, error) {
	if timeout := p.Options.AttemptTimeout.Duration; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".download-*")
	if err != nil {
		return 0, modelxerrors.NewInternalError(err)
	}
	tmpname := tmp.Name()
	defer os.Remove(tmpname)

	bar.SetTotal(0)
	bar.SetStatus("downloading")
	n, err := p.Fetcher.Fetch(ctx, loc, bar.WrapWriter(tmp))
	if err != nil {
		tmp.Close()
		return n, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return n, modelxerrors.NewInternalError(err)
	}
	if err := tmp.Close(); err != nil {
		return n, modelxerrors.NewInternalError(err)
	}
	if err := verify.File(ctx, tmpname, entry); err != nil {
		return n, modelxerrors.NewVerifyFailedError(entry.Name, err)
	}
	if err := os.Rename(tmpname, filename); err != nil {
		return n, modelxerrors.NewInternalError(err)
	}
	return n, nil
}

func (p *Provisioner) workers() int {
	if p.Options.Workers <= 0 {
		return 1
	}
	return p.Options.Workers
}

// attempts is at least one, retry-go treats zero as unlimited.
func (p *Provisioner) attempts() int {
	if p.Options.Attempts <= 0 {
		return 1
	}
	return p.Options.Attempts
}

func retryable(err error) bool {
	return !modelxerrors.IsNotFound(err) &&
		!modelxerrors.IsErrCode(err, modelxerrors.ErrCodeVerifyFailed) &&
		!unresolvable(err)
}

// unresolvable errors come from a location no fetcher can request.
func unresolvable(err error) bool {
	return modelxerrors.IsErrCode(err, modelxerrors.ErrCodeInvalidParameter) ||
		modelxerrors.IsErrCode(err, modelxerrors.ErrCodeUnsupported)
}

func reasonOf(ctx context.Context, err error) Reason {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		return ReasonCanceled
	case modelxerrors.IsNotFound(err):
		return ReasonNotFound
	case modelxerrors.IsErrCode(err, modelxerrors.ErrCodeVerifyFailed):
		return ReasonVerifyFailed
	case unresolvable(err):
		return ReasonResolveFailed
	default:
		return ReasonDownloadFailed
	}
}

// LocalState reports the on-disk state of entry without reading its content.
func LocalState(dir string, entry types.Entry) State {
	fi, err := os.Stat(filepath.Join(dir, entry.Filename()))
	if err != nil || fi.IsDir() || fi.Size() == 0 {
		return StateAbsent
	}
	return StatePresentUnverified
}

// Missing returns the required entries that have no file in dir.
func Missing(dir string, manifest types.Manifest) []types.Entry {
	missing := []types.Entry{}
	for _, e := range manifest.Required() {
		if LocalState(dir, e) == StateAbsent {
			missing = append(missing, e)
		}
	}
	return missing
}
