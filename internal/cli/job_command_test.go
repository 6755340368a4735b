package cli

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"planhub/internal/api"
	"planhub/internal/model"
	"planhub/internal/store"
)

func newTestDetailModel(t *testing.T, handler http.Handler, snap store.Snapshot) (jobDetailModel, *store.Store) {
	t.Helper()
	if handler == nil {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, "test-token", zerolog.Nop())

	st := store.New(snap)
	return newJobDetailModel(st, client, zerolog.Nop(), "https://console.example.com"), st
}

func loadedSnapshot(status string, canEdit bool, steps []model.PlanStep) store.Snapshot {
	return store.Snapshot{
		User:            store.LoadedRemote(model.User{ID: 1, Username: "ops"}),
		Product:         &model.Product{ID: 10, Slug: "widget", Title: "Widget"},
		VersionLabel:    "2.4.1",
		Version:         store.LoadedRemote(model.Version{ID: 20, ProductID: 10, Label: "2.4.1"}),
		VersionForLabel: "2.4.1",
		Plan:            &model.Plan{ID: 30, Slug: "default", Title: "Default Install", Steps: steps},
		JobID:           40,
		Job:             store.LoadedRemote(model.Job{ID: 40, Status: status, UserCanEdit: canEdit}),
	}
}

func keyRunes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestJobDetail_MountMarksJobInFlight(t *testing.T) {
	m, st := newTestDetailModel(t, nil, store.Snapshot{JobID: 40})
	if !m.mounted {
		t.Fatal("expected model to be mounted after construction")
	}
	if got := st.Snapshot().Job.State; got != store.Loading {
		t.Fatalf("expected job fetch to be in flight after mount, got %s", got)
	}
	if got := st.Snapshot().Version.State; got != store.NotRequested {
		t.Fatalf("version has no product/label yet, expected not_requested, got %s", got)
	}
	if len(m.pending) != 1 {
		t.Fatalf("expected one pending mount fetch, got %d", len(m.pending))
	}
}

func TestJobDetail_SeedDispatchesVersionFetch(t *testing.T) {
	m, st := newTestDetailModel(t, nil, store.Snapshot{JobID: 40})

	product := model.Product{ID: 10, Slug: "widget", Title: "Widget"}
	plan := model.Plan{ID: 30, Slug: "default", Title: "Default Install"}
	modelOut, cmd := m.Update(jobSeedMsg{
		user:         &model.User{ID: 1, Username: "ops"},
		product:      &product,
		plan:         &plan,
		versionLabel: "2.4.1",
	})
	m2 := modelOut.(jobDetailModel)

	if cmd == nil {
		t.Fatal("expected a fetch command after the version group changed")
	}
	if got := st.Snapshot().Version.State; got != store.Loading {
		t.Fatalf("expected version fetch in flight after seed, got %s", got)
	}
	if m2.fatalErr != nil {
		t.Fatalf("unexpected fatal error: %v", m2.fatalErr)
	}
}

func TestJobDetail_ViewPlaceholderWhenProductMissing(t *testing.T) {
	snap := loadedSnapshot(model.StatusStarted, true, nil)
	snap.Product = nil
	m, _ := newTestDetailModel(t, nil, snap)

	view := m.View()
	if !strings.Contains(view, "Installation job not found.") {
		t.Fatalf("expected not-found placeholder, got:\n%s", view)
	}
	if strings.Contains(view, "Default Install") {
		t.Fatal("full layout must never render without a product")
	}
}

func TestJobDetail_ViewLoadingWhileJobInFlight(t *testing.T) {
	snap := loadedSnapshot(model.StatusStarted, true, nil)
	snap.Job = store.Remote[model.Job]{State: store.Loading}
	m, _ := newTestDetailModel(t, nil, snap)

	if view := m.View(); !strings.Contains(view, "Loading installation job...") {
		t.Fatalf("expected loading placeholder, got:\n%s", view)
	}
}

func TestJobDetail_ViewSignedOut(t *testing.T) {
	snap := loadedSnapshot(model.StatusStarted, true, nil)
	snap.User = store.Remote[model.User]{State: store.NotFound}
	m, _ := newTestDetailModel(t, nil, snap)

	if view := m.View(); !strings.Contains(view, "Sign in to view this installation job.") {
		t.Fatalf("expected sign-in placeholder, got:\n%s", view)
	}
}

func TestJobDetail_ViewBeforeSeedIsLoadingNotSignedOut(t *testing.T) {
	m, _ := newTestDetailModel(t, nil, store.Snapshot{JobID: 40})

	view := m.View()
	if strings.Contains(view, "Sign in to view this installation job.") {
		t.Fatalf("an unseeded viewer must not be told to sign in, got:\n%s", view)
	}
	if !strings.Contains(view, "Loading installation job...") {
		t.Fatalf("expected loading placeholder before the seed settles, got:\n%s", view)
	}
}

func TestJobDetail_StepsTableOnlyWhenPlanHasSteps(t *testing.T) {
	m, _ := newTestDetailModel(t, nil, loadedSnapshot(model.StatusStarted, true, nil))
	if view := m.View(); strings.Contains(view, "Result") {
		t.Fatalf("empty plan must not render a steps table, got:\n%s", view)
	}

	steps := []model.PlanStep{{ID: 1, Name: "download-artifact"}}
	m2, _ := newTestDetailModel(t, nil, loadedSnapshot(model.StatusStarted, true, steps))
	view := m2.View()
	if !strings.Contains(view, "download-artifact") {
		t.Fatalf("expected steps table with step name, got:\n%s", view)
	}
}

func TestJobDetail_CancelControlVisibility(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		canEdit bool
		want    bool
	}{
		{"started editable", model.StatusStarted, true, true},
		{"started read-only", model.StatusStarted, false, false},
		{"complete editable", model.StatusComplete, true, false},
		{"failed editable", model.StatusFailed, true, false},
	}

	for _, tc := range cases {
		m, _ := newTestDetailModel(t, nil, loadedSnapshot(tc.status, tc.canEdit, nil))
		got := strings.Contains(m.View(), "c: cancel installation")
		if got != tc.want {
			t.Fatalf("%s: cancel control shown=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestJobDetail_CancelFlowSetsTerminalCancelingState(t *testing.T) {
	cancelPosts := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/cancel") {
			cancelPosts++
			w.WriteHeader(http.StatusAccepted)
			return
		}
		http.NotFound(w, r)
	})
	m, _ := newTestDetailModel(t, handler, loadedSnapshot(model.StatusStarted, true, nil))

	modelOut, cmd := m.updateDetail(keyRunes('c'))
	m2 := modelOut.(jobDetailModel)
	if cmd == nil {
		t.Fatal("expected a cancel command")
	}

	msg := cmd()
	if cancelPosts != 1 {
		t.Fatalf("expected exactly one cancel request, got %d", cancelPosts)
	}
	done, ok := msg.(jobCancelDoneMsg)
	if !ok {
		t.Fatalf("expected jobCancelDoneMsg, got %T", msg)
	}
	if done.err != nil {
		t.Fatalf("cancel request failed: %v", done.err)
	}

	modelOut, _ = m2.Update(done)
	m3 := modelOut.(jobDetailModel)
	if !m3.canceling {
		t.Fatal("expected canceling=true after the cancel request completed")
	}
	if view := m3.View(); !strings.Contains(view, "Canceling Installation...") {
		t.Fatalf("expected disabled canceling indicator, got:\n%s", view)
	}

	// Terminal: another cancel press is a no-op.
	if _, cmd := m3.updateDetail(keyRunes('c')); cmd != nil {
		t.Fatal("cancel must be disabled while canceling")
	}
}

func TestJobDetail_CancelFailureLeavesControlLive(t *testing.T) {
	m, _ := newTestDetailModel(t, nil, loadedSnapshot(model.StatusStarted, true, nil))

	modelOut, _ := m.Update(jobCancelDoneMsg{jobID: 40, err: api.ErrNotFound})
	m2 := modelOut.(jobDetailModel)
	if m2.canceling {
		t.Fatal("a failed cancel must not flip canceling")
	}
	if view := m2.View(); !strings.Contains(view, "c: cancel installation") {
		t.Fatalf("cancel control should remain after a failed request, got:\n%s", view)
	}
}

func TestJobDetail_ReadOnlyViewerCannotCancel(t *testing.T) {
	m, _ := newTestDetailModel(t, nil, loadedSnapshot(model.StatusStarted, false, nil))
	if _, cmd := m.updateDetail(keyRunes('c')); cmd != nil {
		t.Fatal("read-only viewer must not dispatch cancel")
	}
}

func TestJobDetail_ShareModalToggle(t *testing.T) {
	m, _ := newTestDetailModel(t, nil, loadedSnapshot(model.StatusStarted, true, nil))

	modelOut, _ := m.updateDetail(keyRunes('s'))
	m2 := modelOut.(jobDetailModel)
	if !m2.modalOpen {
		t.Fatal("expected share modal to open")
	}
	if view := m2.View(); !strings.Contains(view, "Share Installation") {
		t.Fatalf("expected share modal content, got:\n%s", view)
	}

	modelOut, _ = m2.updateShareModal(tea.KeyMsg{Type: tea.KeyEsc})
	m3 := modelOut.(jobDetailModel)
	if m3.modalOpen {
		t.Fatal("expected share modal to close on esc")
	}
}

func TestJobDetail_ShareModalBlockedWhileLoading(t *testing.T) {
	snap := loadedSnapshot(model.StatusStarted, true, nil)
	snap.Job = store.Remote[model.Job]{State: store.Loading}
	m, _ := newTestDetailModel(t, nil, snap)

	modelOut, _ := m.updateDetail(keyRunes('s'))
	m2 := modelOut.(jobDetailModel)
	if m2.modalOpen {
		t.Fatal("share modal must not open before data is ready")
	}
}

func TestJobDetail_ShareToggleUpdatesJob(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":40,"status":"STARTED","user_can_edit":true,"is_public":true,"share_url":"https://console.example.com/share/abc","results":[]}`))
			return
		}
		http.NotFound(w, r)
	})
	m, st := newTestDetailModel(t, handler, loadedSnapshot(model.StatusStarted, true, nil))
	m.modalOpen = true

	modelOut, cmd := m.updateShareModal(keyRunes('p'))
	m2 := modelOut.(jobDetailModel)
	if cmd == nil {
		t.Fatal("expected an update-job command")
	}

	modelOut, _ = m2.Update(cmd())
	m3 := modelOut.(jobDetailModel)
	snap := st.Snapshot()
	if snap.Job.Value == nil || !snap.Job.Value.Public {
		t.Fatal("expected the store to hold the shared job")
	}
	if m3.statusMessage != "installation shared" {
		t.Fatalf("unexpected status message %q", m3.statusMessage)
	}
}

func TestJobDetail_RefreshRefetchesSettledJob(t *testing.T) {
	m, st := newTestDetailModel(t, nil, loadedSnapshot(model.StatusStarted, true, nil))

	_, cmd := m.updateDetail(keyRunes('r'))
	if cmd == nil {
		t.Fatal("expected a refetch command on refresh")
	}
	if got := st.Snapshot().Job.State; got != store.Loading {
		t.Fatalf("expected job fetch in flight after refresh, got %s", got)
	}
}
