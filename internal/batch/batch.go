// Package batch implements the concurrent batch driver of spec §4.5: a
// bounded worker pool over zone names, stop/continue error policy,
// graceful cancellation with a grace timeout, and periodic progress
// snapshots. The worker-pool/goroutine shape is grounded in
// external-dns's main.go (its "go handleSigterm(cancel)" /
// "go serveMetrics(...)" pattern of spawning long-lived goroutines off
// main) and controller/controller.go's Run ticker loop, generalized
// from "one controller polling on an interval" to "N workers draining a
// zone queue".
package batch

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/railadeividas/powerdns-migrator/internal/config"
	pdnserrors "github.com/railadeividas/powerdns-migrator/internal/errors"
	"github.com/railadeividas/powerdns-migrator/internal/migrator"
)

// Migrate is the function the driver calls for each zone name; it is
// the migrator.Migrator.Migrate method in production and a fake in tests.
type Migrate func(ctx context.Context, zoneName string) (*migrator.Result, error)

// Outcome is one zone's terminal state in the aggregated result.
type Outcome struct {
	ZoneName  string
	Result    *migrator.Result
	Err       error
	Cancelled bool
}

// Snapshot is a point-in-time progress report, emitted periodically and
// always once more at the end, per spec §4.5.
type Snapshot struct {
	Total     int
	Completed int
	Succeeded int
	Failed    int
	InFlight  int
	Elapsed   time.Duration
}

// Result is the driver's aggregated, input-ordered output, per §4.5's
// determinism guarantee and invariant 5 of spec §8.
type Result struct {
	Outcomes  []Outcome
	StoppedBy error
}

// Options configures one Run.
type Options struct {
	Concurrency      int
	OnError          config.OnErrorPolicy
	GracefulTimeout  time.Duration
	ProgressInterval time.Duration
	OnProgress       func(Snapshot)
}

// Driver runs Migrate over a list of zone names with bounded parallelism.
type Driver struct {
	migrate Migrate
	opts    Options
	metrics *metrics
}

// New builds a Driver.
func New(migrate Migrate, opts Options) *Driver {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Driver{migrate: migrate, opts: opts, metrics: newMetrics()}
}

type job struct {
	index int
	name  string
}

// Run dispatches zoneNames (assumed already deduplicated, per §4.5) over
// a bounded worker pool and returns results in input order. ctx
// cancellation (e.g. from a SIGINT handler) begins graceful shutdown: no
// further zones are dispatched, in-flight zones receive ctx
// cancellation, and Run waits up to opts.GracefulTimeout (0 = forever)
// before abandoning stragglers.
func (d *Driver) Run(ctx context.Context, zoneNames []string) *Result {
	outcomes := make([]Outcome, len(zoneNames))
	jobs := make(chan job)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var stopOnce sync.Once
	var stoppedBy error
	stopForError := func(err error) {
		stopOnce.Do(func() {
			stoppedBy = err
			cancelRun()
		})
	}

	var mu sync.Mutex
	start := time.Now()
	completed, succeeded, failed, inFlight := 0, 0, 0, 0

	snapshot := func() Snapshot {
		mu.Lock()
		defer mu.Unlock()
		return Snapshot{
			Total:     len(zoneNames),
			Completed: completed,
			Succeeded: succeeded,
			Failed:    failed,
			InFlight:  inFlight,
			Elapsed:   time.Since(start),
		}
	}

	stopProgress := d.startProgressTicker(snapshot)
	defer stopProgress()

	var wg sync.WaitGroup
	for i := 0; i < d.opts.Concurrency; i++ {
		wg.Add(1)
		go d.worker(runCtx, &wg, jobs, outcomes, &mu, &completed, &succeeded, &failed, &inFlight, stopForError)
	}

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		defer close(jobs)
		for i, name := range zoneNames {
			select {
			case jobs <- job{index: i, name: name}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	select {
	case <-workersDone:
	case <-runCtx.Done():
		d.waitForGrace(workersDone)
	}
	<-dispatchDone

	markUndispatched(outcomes, zoneNames)

	if d.opts.OnProgress != nil {
		d.opts.OnProgress(snapshot())
	}
	return &Result{Outcomes: outcomes, StoppedBy: stoppedBy}
}

// waitForGrace waits up to opts.GracefulTimeout for workers to unwind
// after the run is cancelled, whether by the caller's ctx or by the
// stop-on-error policy, per spec §4.5's graceful-cancellation rule
// (0 means wait indefinitely).
func (d *Driver) waitForGrace(workersDone <-chan struct{}) {
	log.Info("batch: cancellation received, waiting for in-flight zones to unwind")
	if d.opts.GracefulTimeout <= 0 {
		<-workersDone
		return
	}
	select {
	case <-workersDone:
	case <-time.After(d.opts.GracefulTimeout):
		log.Warn("batch: graceful timeout expired, abandoning remaining zones")
	}
}

func (d *Driver) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan job,
	outcomes []Outcome,
	mu *sync.Mutex,
	completed, succeeded, failed, inFlight *int,
	stopForError func(error),
) {
	defer wg.Done()
	for j := range jobs {
		if ctx.Err() != nil {
			outcomes[j.index] = Outcome{ZoneName: j.name, Cancelled: true, Err: &pdnserrors.CancelledError{Reason: "not started before cancellation"}}
			continue
		}

		mu.Lock()
		*inFlight++
		mu.Unlock()

		result, err := d.migrate(ctx, j.name)

		mu.Lock()
		*inFlight--
		*completed++
		if err != nil {
			*failed++
		} else {
			*succeeded++
		}
		mu.Unlock()

		if err != nil {
			outcomes[j.index] = Outcome{ZoneName: j.name, Err: err, Cancelled: pdnserrors.IsCancelled(err)}
			d.metrics.recordFailure(err)
			log.Errorf("zone %s: kind=%s error=%v", j.name, pdnserrors.KindOf(err), err)
			if d.opts.OnError == config.OnErrorStop {
				stopForError(err)
			}
		} else {
			outcomes[j.index] = Outcome{ZoneName: j.name, Result: result}
			d.metrics.recordSuccess(result)
		}
	}
}

// markUndispatched fills in any zone the dispatcher never got to send
// (because Run stopped early) as cancelled, so every input zone still
// produces exactly one outcome (spec §8 invariant 5).
func markUndispatched(outcomes []Outcome, zoneNames []string) {
	for i, name := range zoneNames {
		if outcomes[i].ZoneName == "" {
			outcomes[i] = Outcome{ZoneName: name, Cancelled: true, Err: &pdnserrors.CancelledError{Reason: "not dispatched"}}
		}
	}
}

func (d *Driver) startProgressTicker(snapshot func() Snapshot) func() {
	if d.opts.ProgressInterval <= 0 || d.opts.OnProgress == nil {
		return func() {}
	}
	ticker := time.NewTicker(d.opts.ProgressInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				d.opts.OnProgress(snapshot())
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
