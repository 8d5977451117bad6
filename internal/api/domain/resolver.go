package domain

import "time"

// Resolve derives the current status of job at now and commits any
// transition to the record. Terminal statuses are returned as stored,
// without looking at the clock again.
//
// A pending job stays pending while elapsed <= Timeout, completes while
// elapsed <= 2*Timeout and errors afterwards.
func Resolve(job *Job, now time.Time) Status {
	if job.Status != StatusPending {
		return job.Status
	}

	elapsed := now.Sub(job.CreatedAt)
	switch {
	case elapsed <= job.Timeout:
		// still within the first window
	case elapsed <= 2*job.Timeout:
		job.Status = StatusCompleted
	default:
		job.Status = StatusError
	}

	return job.Status
}
