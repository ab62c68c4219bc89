// Package batch implements the cross-method fork-join scheduler: it takes
// a set of independent methods, runs each one's interpret-record-lift
// pipeline concurrently under a bounded worker pool, and returns a
// complete result set plus a combined error — a single method's failure
// never aborts the others (spec.md §5). It is the concrete home for the
// aggregate counters, diagnostic run-ID tagging, and TACode memoization
// spec.md describes behaviourally but places in no named module.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
	"github.com/bytecodeflow/jvmtac/pkg/config"
	"github.com/bytecodeflow/jvmtac/pkg/descriptor"
	"github.com/bytecodeflow/jvmtac/pkg/domain"
	"github.com/bytecodeflow/jvmtac/pkg/hierarchy"
	"github.com/bytecodeflow/jvmtac/pkg/interp"
	"github.com/bytecodeflow/jvmtac/pkg/tac"
)

// MethodJob is one unit of fork-join work: everything Driver.Run needs to
// carry a single method through interp.Run and tac.Lift. ID must be unique
// within a single Run call (e.g. "pkg/Class.method(descriptor)") — it is
// both the memoization key and the identifier diagnostics correlate
// against, and overloaded methods sharing a name are exactly why it is the
// caller's job to make it unique rather than derived internally.
type MethodJob struct {
	ID         string
	Code       *bytecode.Code
	Descriptor *descriptor.MethodDescriptor
	IsStatic   bool
	MaxLocals  int
	ParamTypes []bytecode.ComputationalType
	Domain     domain.Domain
	Hierarchy  hierarchy.Hierarchy
	Tracer     interp.Tracer
}

// Stats carries the aggregate counters spec.md §7 asks for on success:
// identical-origin value count, evaluation time, and dominator time.
type Stats struct {
	EvaluationTime        time.Duration
	DominatorTime         time.Duration
	IdenticalOriginValues int
	Steps                 int
}

// Outcome is one method's successful pipeline result, tagged with a run ID
// so a diagnostic can be correlated across the success/failure queues and
// log lines without re-deriving identity from name+descriptor.
type Outcome struct {
	RunID uuid.UUID
	JobID string
	AI    *interp.Result
	TAC   *tac.TACode
	Stats Stats
}

// Failure is one method's pipeline failure, classified per the taxonomy in
// errors.go.
type Failure struct {
	RunID uuid.UUID
	JobID string
	Err   error
}

// Result is the complete output of one Driver.Run call: every job's
// outcome lands in exactly one of Successes or Failures.
type Result struct {
	Successes []Outcome
	Failures  []Failure
}

// Driver runs a batch of MethodJobs under a bounded worker pool, memoizing
// TACode by (job ID, configuration) and exposing Prometheus counters for
// the aggregate statistics each successful run produces.
type Driver struct {
	concurrency int
	cache       *lru.Cache[cacheKey, *tac.TACode]
	metrics     *metricsSet
	log         *zap.SugaredLogger
}

type cacheKey struct {
	jobID      string
	configHash string
}

// Option configures a Driver at construction.
type Option func(*driverConfig)

type driverConfig struct {
	concurrency int
	cacheSize   int
	registerer  prometheus.Registerer
	log         *zap.SugaredLogger
}

// WithConcurrency bounds how many methods run at once (errgroup.SetLimit).
// n <= 0 means unbounded.
func WithConcurrency(n int) Option { return func(c *driverConfig) { c.concurrency = n } }

// WithCacheSize bounds the TACode memoization LRU's entry count.
func WithCacheSize(n int) Option { return func(c *driverConfig) { c.cacheSize = n } }

// WithRegisterer registers the driver's Prometheus collectors against reg
// instead of leaving them unregistered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *driverConfig) { c.registerer = reg }
}

// WithLogger attaches a zap logger; the default is zap.NewNop().Sugar().
func WithLogger(log *zap.SugaredLogger) Option { return func(c *driverConfig) { c.log = log } }

// NewDriver builds a Driver ready for Run. With no options it runs with
// unbounded concurrency, a 256-entry cache, an unregistered metrics set,
// and a no-op logger.
func NewDriver(opts ...Option) (*Driver, error) {
	c := &driverConfig{concurrency: 0, cacheSize: 256, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(c)
	}
	cache, err := lru.New[cacheKey, *tac.TACode](c.cacheSize)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "batch: building TACode cache")
	}
	return &Driver{
		concurrency: c.concurrency,
		cache:       cache,
		metrics:     newMetricsSet(c.registerer),
		log:         c.log,
	}, nil
}

// Run executes every job concurrently under the driver's worker pool,
// applying conf uniformly. It always returns a complete Result; the
// returned error, if non-nil, is a multierr aggregate of every job's
// classified failure (spec.md: per-method failures never abort the
// batch). ctx cancellation does not stop jobs from being started; it
// propagates into each job's interp.Run, which returns ctx.Err() at its
// next worklist step.
func (d *Driver) Run(ctx context.Context, conf config.Configuration, jobs []MethodJob) (*Result, error) {
	eg, gctx := errgroup.WithContext(ctx)
	if d.concurrency > 0 {
		eg.SetLimit(d.concurrency)
	}

	var (
		mu      sync.Mutex
		result  = &Result{}
		combined error
	)

	hash := configHash(conf)

	for _, job := range jobs {
		job := job
		eg.Go(func() error {
			outcome, err := d.runOne(gctx, conf, hash, job)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				runID := uuid.New()
				d.log.Errorw("batch.method_failed", "job", job.ID, "runID", runID, "error", err)
				result.Failures = append(result.Failures, Failure{RunID: runID, JobID: job.ID, Err: err})
				combined = multierr.Append(combined, pkgerrors.Wrapf(err, "batch: method %s", job.ID))
				d.metrics.methodsFailed.WithLabelValues(kindOf(err).String()).Inc()
				return nil
			}
			result.Successes = append(result.Successes, *outcome)
			d.metrics.methodsSucceeded.Inc()
			return nil
		})
	}

	// eg.Go's closures always return nil (failures are collected, not
	// propagated through the group), so Wait never itself returns an
	// error; it only blocks until every job has run.
	_ = eg.Wait()
	return result, combined
}

func (d *Driver) runOne(ctx context.Context, conf config.Configuration, confHash string, job MethodJob) (*Outcome, error) {
	key := cacheKey{jobID: job.ID, configHash: confHash}
	if cached, ok := d.cache.Get(key); ok {
		d.metrics.cacheHits.Inc()
		return &Outcome{RunID: uuid.New(), JobID: job.ID, TAC: cached}, nil
	}
	d.metrics.cacheMisses.Inc()

	tracer := job.Tracer
	if tracer == nil {
		tracer = interp.NewZapTracer(d.log)
	}

	evalStart := time.Now()
	aiResult, err := interp.Run(ctx, job.Domain, job.Hierarchy, interp.MethodInput{
		Code:       job.Code,
		MaxLocals:  job.MaxLocals,
		IsStatic:   job.IsStatic,
		ParamTypes: job.ParamTypes,
	}, conf, tracer)
	evalDuration := time.Since(evalStart)
	if err != nil {
		return nil, classify(err)
	}
	d.metrics.evaluationSeconds.Observe(evalDuration.Seconds())

	if err := aiResult.DefUse.CheckInvariants(); err != nil {
		return nil, classify(err)
	}
	if err := checkCFGSymmetry(aiResult.CFG); err != nil {
		return nil, err
	}

	domStart := time.Now()
	aiResult.CFG.Dominators()
	domDuration := time.Since(domStart)
	d.metrics.dominatorSeconds.Observe(domDuration.Seconds())

	tacode, err := tac.Lift(tac.Input{
		Code:       job.Code,
		Descriptor: job.Descriptor,
		IsStatic:   job.IsStatic,
		AI:         aiResult,
	})
	if err != nil {
		return nil, classify(err)
	}

	identical := countIdenticalOriginValues(aiResult)
	d.metrics.identicalOriginValues.Observe(float64(identical))

	d.cache.Add(key, tacode)

	return &Outcome{
		RunID: uuid.New(),
		JobID: job.ID,
		AI:    aiResult,
		TAC:   tacode,
		Stats: Stats{
			EvaluationTime:        evalDuration,
			DominatorTime:         domDuration,
			IdenticalOriginValues: identical,
			Steps:                 aiResult.Steps,
		},
	}, nil
}

// countIdenticalOriginValues counts every operand-stack slot, across every
// pc the fixpoint reached, whose entry snapshot carries more than one
// possible origin — a merge point the lifter will turn into a UVar with
// multiple DefSites rather than a single direct reference.
func countIdenticalOriginValues(r *interp.Result) int {
	count := 0
	for _, pc := range r.EvaluatedPCs() {
		for _, origins := range r.DefUse.OperandOriginsAt(pc) {
			if len(origins) > 1 {
				count++
			}
		}
	}
	return count
}

func kindOf(err error) Kind {
	var ce *ClassifiedError
	if pkgerrors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// configHash builds a deterministic key from the configuration fields that
// actually change a method's TACode; it is not a cryptographic hash, only
// a cheap equality witness for the memoization cache.
func configHash(c config.Configuration) string {
	return fmt.Sprintf("%t|%t|%t|%g|%d",
		c.ThrowAllPotentialExceptions, c.IgnoreSynchronization, c.IdentifyDeadVariables,
		c.MaxEvaluationFactor, c.MaxEvaluationTimeMs)
}
