package cli

import (
	"testing"

	"planhub/internal/model"
	"planhub/internal/store"
)

func seededSnapshot() store.Snapshot {
	return store.Snapshot{
		User:         store.LoadedRemote(model.User{ID: 1, Username: "ops"}),
		Product:      &model.Product{ID: 10, Slug: "widget", Title: "Widget"},
		VersionLabel: "2.4.1",
		Plan:         &model.Plan{ID: 30, Slug: "default", Title: "Default Install"},
		JobID:        40,
	}
}

func countKind(effects []fetchEffect, kind fetchKind) int {
	n := 0
	for _, e := range effects {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestReconcile_MountIssuesBothFetches(t *testing.T) {
	next := seededSnapshot()

	effects := reconcileFetches(store.Snapshot{}, next, false)
	if countKind(effects, fetchVersion) != 1 {
		t.Fatalf("expected exactly one fetch-version on mount, got %v", effects)
	}
	if countKind(effects, fetchJob) != 1 {
		t.Fatalf("expected exactly one fetch-job on mount, got %v", effects)
	}

	for _, e := range effects {
		if e.Kind == fetchVersion && (e.ProductID != 10 || e.Label != "2.4.1") {
			t.Fatalf("fetch-version keyed wrong: %+v", e)
		}
		if e.Kind == fetchJob && e.JobID != 40 {
			t.Fatalf("fetch-job keyed wrong: %+v", e)
		}
	}
}

func TestReconcile_MountWithoutInputsIssuesNothing(t *testing.T) {
	next := store.Snapshot{JobID: 40}
	next.Job = store.Remote[model.Job]{State: store.Loading}

	effects := reconcileFetches(store.Snapshot{}, next, false)
	if len(effects) != 0 {
		t.Fatalf("no product/label and job already in flight: expected no effects, got %v", effects)
	}
}

func TestReconcile_UnrelatedUpdateIssuesNothing(t *testing.T) {
	prev := seededSnapshot()
	prev.Version = store.LoadedRemote(model.Version{ID: 20, ProductID: 10, Label: "2.4.1"})
	prev.VersionForLabel = "2.4.1"
	prev.Job = store.LoadedRemote(model.Job{ID: 40, Status: model.StatusStarted})

	next := prev
	next.User = store.LoadedRemote(model.User{ID: 2, Username: "someone-else"})

	if effects := reconcileFetches(prev, next, true); len(effects) != 0 {
		t.Fatalf("user change alone must not refetch, got %v", effects)
	}
}

func TestReconcile_VersionLabelChangeRefetchesVersionOnly(t *testing.T) {
	prev := seededSnapshot()
	prev.Version = store.LoadedRemote(model.Version{ID: 20, ProductID: 10, Label: "2.4.1"})
	prev.VersionForLabel = "2.4.1"
	prev.Job = store.LoadedRemote(model.Job{ID: 40, Status: model.StatusStarted})

	next := prev
	next.VersionLabel = "2.5.0"

	effects := reconcileFetches(prev, next, true)
	if countKind(effects, fetchVersion) != 1 || countKind(effects, fetchJob) != 0 {
		t.Fatalf("expected one fetch-version and no fetch-job, got %v", effects)
	}
	if effects[0].Label != "2.5.0" {
		t.Fatalf("fetch-version should be keyed by the new label, got %+v", effects[0])
	}
}

func TestReconcile_JobNotFoundNeverRefetches(t *testing.T) {
	prev := seededSnapshot()
	prev.Version = store.LoadedRemote(model.Version{ID: 20, ProductID: 10, Label: "2.4.1"})
	prev.VersionForLabel = "2.4.1"
	prev.Job = store.Remote[model.Job]{State: store.Loading}

	next := prev
	next.Job = store.Remote[model.Job]{State: store.NotFound}

	if effects := reconcileFetches(prev, next, true); len(effects) != 0 {
		t.Fatalf("a job known to be absent must not be re-fetched, got %v", effects)
	}
}

func TestReconcile_JobResetTriggersRefetch(t *testing.T) {
	prev := seededSnapshot()
	prev.Version = store.LoadedRemote(model.Version{ID: 20, ProductID: 10, Label: "2.4.1"})
	prev.VersionForLabel = "2.4.1"
	prev.Job = store.LoadedRemote(model.Job{ID: 40, Status: model.StatusStarted})

	next := prev
	next.Job = store.Remote[model.Job]{}

	effects := reconcileFetches(prev, next, true)
	if countKind(effects, fetchJob) != 1 || countKind(effects, fetchVersion) != 0 {
		t.Fatalf("expected exactly one fetch-job after reset, got %v", effects)
	}
}

func TestReconcile_SettledVersionMissDoesNotLoop(t *testing.T) {
	prev := seededSnapshot()
	prev.Version = store.Remote[model.Version]{State: store.Loading}
	prev.VersionForLabel = "2.4.1"

	next := prev
	next.Version = store.Remote[model.Version]{State: store.NotFound}

	if effects := reconcileFetches(prev, next, true); countKind(effects, fetchVersion) != 0 {
		t.Fatalf("settled miss for the same label must not re-dispatch, got %v", effects)
	}
}
