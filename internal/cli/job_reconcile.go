package cli

import "planhub/internal/store"

type fetchKind int

const (
	fetchVersion fetchKind = iota
	fetchJob
)

func (k fetchKind) String() string {
	switch k {
	case fetchVersion:
		return "fetch_version"
	case fetchJob:
		return "fetch_job"
	default:
		return "unknown"
	}
}

// fetchEffect identifies one remote fetch the view needs issued, keyed
// by the props that triggered it.
type fetchEffect struct {
	Kind      fetchKind
	ProductID int64
	Label     string
	JobID     int64
}

// reconcileFetches decides which fetches the job detail view owes after
// a snapshot change. On mount (mounted=false) both ensure-operations
// run; afterwards each runs only when its own prop group changed, so
// unrelated updates never re-issue network calls.
//
// ensure-version: product and label present, and the held version does
// not satisfy the label. ensure-job: job never requested and an id is
// routed; a job already known to be absent is never re-fetched.
func reconcileFetches(prev, next store.Snapshot, mounted bool) []fetchEffect {
	var out []fetchEffect

	if !mounted || !store.VersionGroupEqual(prev, next) {
		if next.Product != nil && next.VersionLabel != "" && !store.VersionSatisfies(next) {
			out = append(out, fetchEffect{
				Kind:      fetchVersion,
				ProductID: next.Product.ID,
				Label:     next.VersionLabel,
			})
		}
	}

	if !mounted || !store.JobGroupEqual(prev, next) {
		if next.Job.State == store.NotRequested && next.JobID != 0 {
			out = append(out, fetchEffect{Kind: fetchJob, JobID: next.JobID})
		}
	}

	return out
}
