package jobs

import (
	"context"

	"github.com/kscout/runboard-api/metrics"
	"github.com/kscout/runboard-api/store"

	"github.com/Noah-Huppert/golog"
)

// JobTypeT is used to specify what type of job to start
type JobTypeT string

// JobTypeEnsureIndexes identifies a job of type EnsureIndexes
var JobTypeEnsureIndexes JobTypeT = "ensure_indexes"

// JobTypeRecomputeStatus identifies a job of type RecomputeStatus
var JobTypeRecomputeStatus JobTypeT = "recompute_status"

// JobStartRequest provides informtion required to start a job
type JobStartRequest struct {
	// Type of job to start
	Type JobTypeT

	// Data required to start job
	Data []byte
}

// JobRunner manages starting jobs and shutting down gracefully
type JobRunner struct {
	// queue is a channel to which requests to start jobs are sent
	queue chan JobStartRequest

	// jobInstances holds jobs which can be run
	jobInstances map[JobTypeT]Job

	// Ctx
	Ctx context.Context

	// Logger
	Logger golog.Logger

	// Metrics
	Metrics metrics.Metrics

	// Submissions is the submission store
	Submissions store.SubmissionStore

	// Indexers create storage indexes, empty when the store needs none
	Indexers []Indexer
}

// Init initializes a JobRunner. The Submit() and Run() methods will not work properly
// unless this method is called.
func (r *JobRunner) Init() {
	r.queue = make(chan JobStartRequest)

	r.jobInstances = map[JobTypeT]Job{}
	r.jobInstances[JobTypeEnsureIndexes] = EnsureIndexesJob{
		Ctx:      r.Ctx,
		Indexers: r.Indexers,
	}
	r.jobInstances[JobTypeRecomputeStatus] = RecomputeStatusJob{
		Ctx:         r.Ctx,
		Logger:      r.Logger.GetChild(string(JobTypeRecomputeStatus)),
		Submissions: r.Submissions,
		OnRepaired: func() {
			r.Metrics.SubmissionsWrittenTotal.WithLabelValues("recompute").Inc()
		},
	}
}

// Submit new job. Blocks until the runner accepts the job or the runner's context
// is canceled.
func (r JobRunner) Submit(req JobStartRequest) {
	select {
	case <-r.Ctx.Done():
		return
	case r.queue <- req:
		r.Metrics.JobsSubmittedTotal.WithLabelValues(string(req.Type)).Inc()
	}
}

// Run reads requests off the Queue and runs jobs one at a time.
// If the JobRunner.Ctx is canceled JobRunner will stop accepting jobs and
// return when there are no more jobs running.
// Should be run in a goroutine b/c this method blocks to run jobs.
func (r JobRunner) Run() {
	for {
		select {
		case <-r.Ctx.Done():
			return

		case req := <-r.queue:
			job, ok := r.jobInstances[req.Type]
			if !ok {
				r.Logger.Errorf("cannot handle job type: %s", req.Type)
				continue
			}

			timer := r.Metrics.StartTimer()
			err := job.Do(req.Data)
			elapsed := timer.Finish(r.Metrics.JobsRunDurationsMilliseconds.WithLabelValues(
				string(req.Type), metrics.Successful(err)))

			if err != nil {
				r.Logger.Errorf("failed to run %s job: %s",
					req.Type, err.Error())
				continue
			}

			r.Logger.Debugf("ran %s job in %s", req.Type, elapsed)
		}
	}
}
