package model

import "fmt"

const (
	StatusStarted  = "STARTED"
	StatusComplete = "COMPLETE"
	StatusFailed   = "FAILED"
	StatusCanceled = "CANCELED"
)

var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusStarted: true,
	},
	StatusStarted: {
		StatusStarted:  true,
		StatusComplete: true,
		StatusFailed:   true,
		StatusCanceled: true,
	},
	StatusComplete: {
		StatusComplete: true,
	},
	StatusFailed: {
		StatusFailed:  true,
		StatusStarted: true, // server-side retry starts a fresh pass over the plan
	},
	StatusCanceled: {
		StatusCanceled: true,
	},
}

func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func IsTerminalStatus(status string) bool {
	switch status {
	case StatusComplete, StatusCanceled:
		return true
	default:
		return false
	}
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// CanCancel reports whether the viewer may request cancellation: only an
// in-progress job, and only when the job grants edit rights.
func CanCancel(job *Job) bool {
	if job == nil {
		return false
	}
	return job.Status == StatusStarted && job.UserCanEdit
}

// Progress derives completed/total step counts for a job against its plan.
// Total comes from the plan; completed counts recorded step results.
func Progress(job *Job, plan *Plan) (done, total int) {
	if plan == nil {
		return 0, 0
	}
	total = len(plan.Steps)
	if job == nil {
		return 0, total
	}
	done = len(job.Results)
	if done > total && total > 0 {
		done = total
	}
	return done, total
}

func StatusLabel(status string) string {
	switch status {
	case StatusStarted:
		return "In Progress"
	case StatusComplete:
		return "Complete"
	case StatusFailed:
		return "Failed"
	case StatusCanceled:
		return "Canceled"
	default:
		return status
	}
}

func ValidateStatus(status string) error {
	if !IsKnownStatus(status) {
		return fmt.Errorf("unknown job status %q", status)
	}
	return nil
}
