package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/store"

	"github.com/Noah-Huppert/golog"
)

// RecomputeStatusJobDefinition specifies the behavior of a RecomputeStatusJob
type RecomputeStatusJobDefinition struct {
	// DryRun when true only reports stale submissions
	DryRun bool `json:"dryRun"`
}

// RecomputeResult summarizes a status recomputation
type RecomputeResult struct {
	// Scanned is the number of submissions read
	Scanned int

	// Stale holds the IDs of submissions whose stored status disagreed with their
	// sections
	Stale []string

	// Repaired is the number of stale submissions rewritten
	Repaired int
}

// RecomputeStatusJob rewrites the stored status of every submission whose status
// does not match its sections. The data field is optional. If provided must be a
// JSON encoded RecomputeStatusJobDefinition.
type RecomputeStatusJob struct {
	// Ctx
	Ctx context.Context

	// Logger
	Logger golog.Logger

	// Submissions is the submission store
	Submissions store.SubmissionStore

	// Now returns the current time, time.Now if nil
	Now func() time.Time

	// OnRepaired is called once for each rewritten submission, may be nil
	OnRepaired func()
}

// Do job actions
func (j RecomputeStatusJob) Do(data []byte) error {
	var jobDef RecomputeStatusJobDefinition

	if len(data) > 0 {
		if err := json.Unmarshal(data, &jobDef); err != nil {
			return fmt.Errorf("failed to decode data field as "+
				"RecomputeStatusJobDefinition JSON: %s", err.Error())
		}
	}

	result, err := j.Recompute(jobDef)
	if err != nil {
		return err
	}

	j.Logger.Infof("recomputed statuses, scanned=%d, stale=%d, repaired=%d",
		result.Scanned, len(result.Stale), result.Repaired)

	return nil
}

// Recompute scans every submission and repairs stale statuses
func (j RecomputeStatusJob) Recompute(jobDef RecomputeStatusJobDefinition) (RecomputeResult, error) {
	result := RecomputeResult{
		Stale: []string{},
	}

	// {{{1 Find stale submissions
	stale := []models.Submission{}

	err := j.Submissions.All(j.Ctx, func(sub models.Submission) error {
		result.Scanned++

		if sub.StatusStale() {
			stale = append(stale, sub)
			result.Stale = append(result.Stale, sub.ID.Hex())
		}

		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to scan submissions: %s", err.Error())
	}

	if jobDef.DryRun {
		return result, nil
	}

	// {{{1 Rewrite
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}

	for _, sub := range stale {
		status := sub.Status()

		updated, err := j.Submissions.UpdateOne(j.Ctx, sub.ID, store.SubmissionPatch{
			Sections:  sub.Sections(),
			Status:    &status,
			UpdatedAt: now(),
		})
		if err != nil {
			return result, fmt.Errorf("failed to repair submission %s: %s",
				sub.ID.Hex(), err.Error())
		}

		if updated == nil {
			j.Logger.Debugf("submission %s was deleted before it could be repaired",
				sub.ID.Hex())
			continue
		}

		result.Repaired++
		if j.OnRepaired != nil {
			j.OnRepaired()
		}
	}

	return result, nil
}
