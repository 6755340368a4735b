package store

import (
	"sync"

	"planhub/internal/model"
)

// Readiness is the outcome of the "loading or not found" predicate the
// job detail view renders verbatim.
type Readiness int

const (
	ReadinessLoading Readiness = iota
	ReadinessNotFound
	ReadinessSignedOut
	ReadinessReady
)

func (r Readiness) String() string {
	switch r {
	case ReadinessLoading:
		return "loading"
	case ReadinessNotFound:
		return "not_found"
	case ReadinessSignedOut:
		return "signed_out"
	case ReadinessReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of everything the job detail view
// reads. Product, plan, and user ride along with the routed identifiers;
// version and job carry their own fetch lifecycle because the view is
// responsible for requesting them.
type Snapshot struct {
	// User carries the same fetch lifecycle as version and job: the
	// viewer is unknown until the seed settles, and only a settled miss
	// means signed out.
	User         Remote[model.User]
	Product      *model.Product
	VersionLabel string
	Version      Remote[model.Version]
	// VersionForLabel is the label the Version slot was last fetched
	// for. A settled miss only counts against that label; routing to a
	// new label invalidates it.
	VersionForLabel string
	Plan            *model.Plan
	JobID           int64
	Job             Remote[model.Job]
}

// VersionGroupEqual reports whether the inputs feeding ensure-version are
// unchanged between two snapshots.
func VersionGroupEqual(a, b Snapshot) bool {
	if (a.Product == nil) != (b.Product == nil) {
		return false
	}
	if a.Product != nil && a.Product.ID != b.Product.ID {
		return false
	}
	if a.VersionLabel != b.VersionLabel {
		return false
	}
	if a.VersionForLabel != b.VersionForLabel {
		return false
	}
	if a.Version.State != b.Version.State {
		return false
	}
	if (a.Version.Value == nil) != (b.Version.Value == nil) {
		return false
	}
	if a.Version.Value != nil && a.Version.Value.ID != b.Version.Value.ID {
		return false
	}
	return true
}

// JobGroupEqual reports whether the inputs feeding ensure-job are
// unchanged between two snapshots.
func JobGroupEqual(a, b Snapshot) bool {
	if a.JobID != b.JobID {
		return false
	}
	if a.Job.State != b.Job.State {
		return false
	}
	if (a.Job.Value == nil) != (b.Job.Value == nil) {
		return false
	}
	if a.Job.Value != nil && b.Job.Value != nil {
		x, y := a.Job.Value, b.Job.Value
		if x.ID != y.ID || x.Status != y.Status || x.Public != y.Public ||
			x.Modified != y.Modified || len(x.Results) != len(y.Results) {
			return false
		}
	}
	return true
}

// VersionSatisfies reports whether the currently-held version answers
// the routed version label. Never requested, or any record fetched for
// a different label, means a fetch is needed. A settled miss (NotFound
// or Failed) for the current label satisfies: re-dispatching against
// the same label would only loop.
func VersionSatisfies(s Snapshot) bool {
	switch s.Version.State {
	case Loading:
		return s.VersionForLabel == s.VersionLabel
	case Loaded:
		return s.Version.Value != nil && s.Version.Value.Label == s.VersionLabel
	case NotFound, Failed:
		return s.VersionForLabel == s.VersionLabel
	default:
		return false
	}
}

// ComputeReadiness decides which mutually exclusive view state the job
// detail layout is in. A settled sign-in miss wins over everything,
// then terminal misses, then anything still unsettled. An unseeded
// viewer is Loading, not SignedOut.
func ComputeReadiness(s Snapshot) Readiness {
	switch s.User.State {
	case Loaded:
	case NotFound, Failed:
		return ReadinessSignedOut
	default:
		return ReadinessLoading
	}
	if s.Product == nil || s.Plan == nil {
		return ReadinessNotFound
	}
	if s.Version.State == NotFound || s.Version.State == Failed {
		return ReadinessNotFound
	}
	if s.Job.State == NotFound || s.Job.State == Failed {
		return ReadinessNotFound
	}
	if s.JobID == 0 || s.VersionLabel == "" {
		return ReadinessNotFound
	}
	if s.Version.State != Loaded || s.Job.State != Loaded {
		return ReadinessLoading
	}
	return ReadinessReady
}

// Store is the explicit state handle handed to the view controller: the
// view reads snapshots out and fetch effects write results back in. All
// mutation goes through it so the view never shares mutable records.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
}

func New(initial Snapshot) *Store {
	return &Store{snap: initial}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// SetUser settles the viewer slot: nil means the server answered and
// nobody is signed in.
func (s *Store) SetUser(u *model.User) {
	s.mu.Lock()
	if u == nil {
		s.snap.User = Remote[model.User]{State: NotFound}
	} else {
		s.snap.User = LoadedRemote(*u)
	}
	s.mu.Unlock()
}

func (s *Store) SetProduct(p *model.Product) {
	s.mu.Lock()
	s.snap.Product = p
	s.mu.Unlock()
}

func (s *Store) SetPlan(p *model.Plan) {
	s.mu.Lock()
	s.snap.Plan = p
	s.mu.Unlock()
}

func (s *Store) SetVersionLabel(label string) {
	s.mu.Lock()
	s.snap.VersionLabel = label
	s.mu.Unlock()
}

func (s *Store) MarkVersionLoading(label string) {
	s.mu.Lock()
	s.snap.Version = Remote[model.Version]{State: Loading}
	s.snap.VersionForLabel = label
	s.mu.Unlock()
}

func (s *Store) SetVersion(v model.Version) {
	s.mu.Lock()
	s.snap.Version = LoadedRemote(v)
	s.snap.VersionForLabel = v.Label
	s.mu.Unlock()
}

func (s *Store) SetVersionNotFound(label string) {
	s.mu.Lock()
	s.snap.Version = Remote[model.Version]{State: NotFound}
	s.snap.VersionForLabel = label
	s.mu.Unlock()
}

func (s *Store) SetVersionError(label string, err error) {
	s.mu.Lock()
	s.snap.Version = Remote[model.Version]{State: Failed, Err: err}
	s.snap.VersionForLabel = label
	s.mu.Unlock()
}

func (s *Store) MarkJobLoading() {
	s.mu.Lock()
	s.snap.Job = Remote[model.Job]{State: Loading}
	s.mu.Unlock()
}

func (s *Store) SetJob(j model.Job) {
	s.mu.Lock()
	s.snap.Job = LoadedRemote(j)
	s.mu.Unlock()
}

func (s *Store) SetJobNotFound() {
	s.mu.Lock()
	s.snap.Job = Remote[model.Job]{State: NotFound}
	s.mu.Unlock()
}

func (s *Store) SetJobError(err error) {
	s.mu.Lock()
	s.snap.Job = Remote[model.Job]{State: Failed, Err: err}
	s.mu.Unlock()
}

// ResetJob returns the job slot to NotRequested so the next
// reconciliation pass issues a fresh fetch. Used by manual refresh.
func (s *Store) ResetJob() {
	s.mu.Lock()
	s.snap.Job = Remote[model.Job]{}
	s.mu.Unlock()
}
