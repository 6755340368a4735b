package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"planhub/internal/api"
	"planhub/internal/config"
	"planhub/internal/logging"
	"planhub/internal/model"
	"planhub/internal/store"
)

var (
	jobTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	jobMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	jobErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	jobOKStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	jobWarnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	jobPanelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	jobDisabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true)
)

type jobDetailModel struct {
	st      *store.Store
	client  *api.Client
	log     zerolog.Logger
	console string

	// prev is the last snapshot reconciliation ran against; mounted
	// flips after the mount pass so later passes only consider changed
	// prop groups.
	prev    store.Snapshot
	mounted bool

	modalOpen bool
	// canceling is terminal for the life of the view: set once the
	// cancel request completes, never reset.
	canceling bool

	pending []tea.Cmd

	spin spinner.Model
	prog progress.Model

	width         int
	height        int
	statusMessage string
	fatalErr      error
}

func newJobDetailModel(st *store.Store, client *api.Client, log zerolog.Logger, consoleBaseURL string) jobDetailModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = jobTitleStyle

	m := jobDetailModel{
		st:      st,
		client:  client,
		log:     log,
		console: consoleBaseURL,
		spin:    sp,
		prog:    progress.New(progress.WithDefaultGradient()),
	}

	// Mount pass: both ensure-operations run once against the initial
	// snapshot.
	m.pending = m.dispatchFetches(reconcileFetches(store.Snapshot{}, st.Snapshot(), false))
	m.prev = st.Snapshot()
	m.mounted = true
	return m
}

func (m jobDetailModel) Init() tea.Cmd {
	cmds := append([]tea.Cmd{
		m.spin.Tick,
		seedJobContextCmd(m.client, m.st.Snapshot().JobID),
	}, m.pending...)
	return tea.Batch(cmds...)
}

// dispatchFetches marks each slot in flight and builds the matching
// commands. Marking happens here, on the event-loop turn that decided
// to fetch, so a second reconciliation pass cannot double-issue.
func (m *jobDetailModel) dispatchFetches(effects []fetchEffect) []tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		switch eff.Kind {
		case fetchVersion:
			m.st.MarkVersionLoading(eff.Label)
			m.log.Debug().Int64("product_id", eff.ProductID).Str("label", eff.Label).Msg("dispatch fetch-version")
			cmds = append(cmds, fetchVersionCmd(m.client, eff.ProductID, eff.Label))
		case fetchJob:
			m.st.MarkJobLoading()
			m.log.Debug().Int64("job_id", eff.JobID).Msg("dispatch fetch-job")
			cmds = append(cmds, fetchJobCmd(m.client, eff.JobID))
		}
	}
	return cmds
}

// reconcileAndDispatch compares the previous snapshot against the
// current one and issues whatever fetches the change owes.
func (m *jobDetailModel) reconcileAndDispatch() []tea.Cmd {
	next := m.st.Snapshot()
	cmds := m.dispatchFetches(reconcileFetches(m.prev, next, m.mounted))
	m.prev = m.st.Snapshot()
	return cmds
}

func (m jobDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prog.Width = clampInt(m.width-12, 20, 72)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case jobSeedMsg:
		if msg.err != nil {
			m.fatalErr = msg.err
			return m, tea.Quit
		}
		m.st.SetUser(msg.user)
		m.st.SetProduct(msg.product)
		m.st.SetPlan(msg.plan)
		m.st.SetVersionLabel(msg.versionLabel)
		return m, tea.Batch(m.reconcileAndDispatch()...)

	case versionFetchedMsg:
		switch {
		case msg.notFound:
			m.st.SetVersionNotFound(msg.label)
		case msg.err != nil:
			m.log.Warn().Str("label", msg.label).Err(msg.err).Msg("fetch-version failed")
			m.st.SetVersionError(msg.label, msg.err)
		default:
			m.st.SetVersion(msg.version)
		}
		return m, tea.Batch(m.reconcileAndDispatch()...)

	case jobFetchedMsg:
		switch {
		case msg.notFound:
			m.st.SetJobNotFound()
		case msg.err != nil:
			m.log.Warn().Int64("job_id", msg.jobID).Err(msg.err).Msg("fetch-job failed")
			m.st.SetJobError(msg.err)
		default:
			m.st.SetJob(msg.job)
		}
		return m, tea.Batch(m.reconcileAndDispatch()...)

	case jobCancelDoneMsg:
		if msg.err != nil {
			// The control stays live; the failure is recorded but not
			// surfaced, matching the page this view descends from.
			m.log.Warn().Int64("job_id", msg.jobID).Err(msg.err).Msg("cancel request failed")
			return m, nil
		}
		m.canceling = true
		return m, nil

	case jobUpdatedMsg:
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
			m.log.Warn().Err(msg.err).Msg("update-job failed")
			return m, nil
		}
		m.st.SetJob(msg.job)
		m.statusMessage = shareStatusMessage(msg.job)
		return m, tea.Batch(m.reconcileAndDispatch()...)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.modalOpen {
		return m.updateShareModal(keyMsg)
	}
	return m.updateDetail(keyMsg)
}

func (m jobDetailModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.st.Snapshot()
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "c":
		if m.canceling || !model.CanCancel(snap.Job.Value) {
			return m, nil
		}
		return m, cancelJobCmd(m.client, snap.JobID)
	case "s":
		if store.ComputeReadiness(snap) != store.ReadinessReady {
			return m, nil
		}
		m.modalOpen = true
		m.statusMessage = ""
		return m, nil
	case "r":
		if snap.Job.Settled() {
			m.st.ResetJob()
			return m, tea.Batch(m.reconcileAndDispatch()...)
		}
		return m, nil
	}
	return m, nil
}

func (m jobDetailModel) updateShareModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.st.Snapshot()
	switch msg.String() {
	case "ctrl+c", "esc", "s", "q":
		m.modalOpen = false
		return m, nil
	case "p", "enter":
		if snap.Job.Value == nil || !snap.Job.Value.UserCanEdit {
			m.statusMessage = "you do not have permission to change sharing"
			return m, nil
		}
		return m, updateJobShareCmd(m.client, snap.JobID, !snap.Job.Value.Public)
	}
	return m, nil
}

func (m jobDetailModel) View() string {
	if m.fatalErr != nil {
		return jobErrorStyle.Render("fatal: " + m.fatalErr.Error())
	}
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	snap := m.st.Snapshot()
	switch store.ComputeReadiness(snap) {
	case store.ReadinessSignedOut:
		return m.viewNotice("Sign in to view this installation job.")
	case store.ReadinessLoading:
		return m.viewNotice(m.spin.View() + " Loading installation job...")
	case store.ReadinessNotFound:
		return m.viewNotice("Installation job not found.")
	}

	// Readiness said ready, but every record must actually be present
	// before the full layout renders.
	if snap.Product == nil || snap.Version.Value == nil || snap.Plan == nil || snap.Job.Value == nil {
		return m.viewNotice("Installation job not found.")
	}
	view := m.viewLoaded(snap)
	if m.modalOpen {
		return m.viewShareModal(snap, view)
	}
	return view
}

func (m jobDetailModel) viewNotice(text string) string {
	panel := jobPanelStyle.Width(clampInt(m.width-4, 30, 80)).Render(text)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func (m jobDetailModel) viewLoaded(snap store.Snapshot) string {
	product := snap.Product
	version := snap.Version.Value
	plan := snap.Plan
	job := snap.Job.Value

	title := jobTitleStyle.Render(fmt.Sprintf("%s: %s (%s)", product.Title, plan.Title, version.Label))
	link := jobMutedStyle.Render(api.RouteJobDetail(m.console, product.Slug, version.Label, plan.Slug))
	header := lipgloss.JoinVertical(lipgloss.Left, title, link)

	sections := []string{
		header,
		m.renderControls(job),
		m.renderStatusSection(job, plan),
	}
	if len(plan.Steps) > 0 {
		sections = append(sections, renderStepsTable(plan, job, clampInt(m.width-4, 40, 110)))
	}
	sections = append(sections, m.renderStatusLine())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m jobDetailModel) renderControls(job *model.Job) string {
	parts := []string{}
	if m.canceling {
		parts = append(parts, jobDisabledStyle.Render("[ Canceling Installation... ]"))
	} else if model.CanCancel(job) {
		parts = append(parts, "c: cancel installation")
	}
	parts = append(parts, "s: share", "r: refresh", "q: quit")
	return jobMutedStyle.Render(strings.Join(parts, " | "))
}

func (m jobDetailModel) renderStatusSection(job *model.Job, plan *model.Plan) string {
	lines := []string{statusHeadline(job)}

	if job.Status == model.StatusStarted {
		done, total := model.Progress(job, plan)
		if total > 0 {
			lines = append(lines, "")
			lines = append(lines, m.prog.ViewAs(float64(done)/float64(total)))
			lines = append(lines, jobMutedStyle.Render(fmt.Sprintf("%d of %d steps finished", done, total)))
		}
	}

	if job.Status == model.StatusFailed {
		for _, res := range job.Results {
			if res.Succeeded {
				continue
			}
			for _, e := range res.Errors {
				lines = append(lines, jobErrorStyle.Render(fmt.Sprintf("  %s: %s", res.StepName, e)))
			}
		}
	}

	if job.Public && job.ShareURL != "" {
		lines = append(lines, jobMutedStyle.Render("shared at "+job.ShareURL))
	}

	return jobPanelStyle.Width(clampInt(m.width-4, 40, 110)).Render(strings.Join(lines, "\n"))
}

func (m jobDetailModel) renderStatusLine() string {
	msg := strings.TrimSpace(m.statusMessage)
	if msg == "" {
		return ""
	}
	style := jobMutedStyle
	if strings.HasPrefix(strings.ToLower(msg), "error:") {
		style = jobErrorStyle
	}
	return style.Render(truncateRunes(msg, maxInt(m.width-2, 10)))
}

func (m jobDetailModel) viewShareModal(snap store.Snapshot, background string) string {
	job := snap.Job.Value
	state := "private"
	if job.Public {
		state = "public"
	}
	lines := []string{
		jobTitleStyle.Render("Share Installation"),
		"",
		kv("visibility", state),
	}
	if job.Public && job.ShareURL != "" {
		lines = append(lines, kv("share link", job.ShareURL))
	}
	lines = append(lines, "")
	if job.UserCanEdit {
		lines = append(lines, jobMutedStyle.Render("p/enter: toggle visibility | esc: close"))
	} else {
		lines = append(lines, jobMutedStyle.Render("read-only | esc: close"))
	}
	if strings.TrimSpace(m.statusMessage) != "" {
		lines = append(lines, m.renderStatusLine())
	}

	boxW := clampInt(m.width-8, 40, 84)
	panel := jobPanelStyle.Width(boxW).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

func statusHeadline(job *model.Job) string {
	label := model.StatusLabel(job.Status)
	switch job.Status {
	case model.StatusComplete:
		return jobOKStyle.Render(label) + "  All steps completed."
	case model.StatusFailed:
		return jobErrorStyle.Render(label) + "  One or more steps reported errors."
	case model.StatusCanceled:
		return jobWarnStyle.Render(label) + "  This installation was canceled."
	case model.StatusStarted:
		return jobWarnStyle.Render(label)
	default:
		return label
	}
}

func shareStatusMessage(job model.Job) string {
	if job.Public {
		return "installation shared"
	}
	return "installation set to private"
}

type jobSnapshotOutput struct {
	Job     model.Job     `json:"job"`
	Plan    model.Plan    `json:"plan"`
	Version model.Version `json:"version"`
	Product model.Product `json:"product"`
	Link    string        `json:"link"`
}

func runJob(args []string) error {
	fs := flag.NewFlagSet("job", flag.ContinueOnError)
	jobID := fs.Int64("job-id", 0, "installation job id")
	configPath := fs.String("config", "", "config path (defaults to the user config directory)")
	jsonOut := fs.Bool("json", false, "print a one-shot JSON snapshot instead of the interactive view")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobID <= 0 {
		return errors.New("--job-id is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, closeLog, err := logging.NewFileLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	client := api.NewClient(cfg.APIBaseURL, cfg.Token, log)

	if *jsonOut || !stdoutIsTTY() {
		return printJobSnapshot(client, cfg.ConsoleBaseURL, *jobID)
	}

	st := store.New(store.Snapshot{JobID: *jobID})
	m := newJobDetailModel(st, client, log, cfg.ConsoleBaseURL)
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("job requires an interactive terminal (use --json for scripted output)")
		}
		return err
	}
	if fm, ok := finalModel.(jobDetailModel); ok {
		return fm.fatalErr
	}
	return nil
}

func printJobSnapshot(client *api.Client, consoleBaseURL string, jobID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
	defer cancel()

	jc, err := client.GetJobContext(ctx, jobID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("installation job %d not found", jobID)
		}
		return err
	}
	return printJSON(jobSnapshotOutput{
		Job:     jc.Job,
		Plan:    jc.Plan,
		Version: jc.Version,
		Product: jc.Product,
		Link:    api.RouteJobDetail(consoleBaseURL, jc.Product.Slug, jc.Version.Label, jc.Plan.Slug),
	})
}
