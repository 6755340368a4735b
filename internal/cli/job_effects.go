package cli

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"planhub/internal/api"
	"planhub/internal/model"
)

const effectTimeout = 30 * time.Second

type jobSeedMsg struct {
	user         *model.User
	product      *model.Product
	plan         *model.Plan
	versionLabel string
	err          error
}

type versionFetchedMsg struct {
	version  model.Version
	label    string
	notFound bool
	err      error
}

type jobFetchedMsg struct {
	job      model.Job
	jobID    int64
	notFound bool
	err      error
}

type jobCancelDoneMsg struct {
	jobID int64
	err   error
}

type jobUpdatedMsg struct {
	job model.Job
	err error
}

// seedJobContextCmd loads the viewer plus the routing context (product,
// plan, version label) the web app would already have in its store
// before the detail view mounts. The version and job records themselves
// stay unrequested; fetching those is the view's own job.
func seedJobContextCmd(client *api.Client, jobID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()

		msg := jobSeedMsg{}
		user, err := client.CurrentUser(ctx)
		if err == nil {
			msg.user = &user
		} else if !errors.Is(err, api.ErrNotFound) {
			msg.err = err
			return msg
		}

		jc, err := client.GetJobContext(ctx, jobID)
		if err != nil {
			if errors.Is(err, api.ErrNotFound) {
				// No routing context; the readiness predicate renders
				// the not-found placeholder.
				return msg
			}
			msg.err = err
			return msg
		}
		product := jc.Product
		plan := jc.Plan
		msg.product = &product
		msg.plan = &plan
		msg.versionLabel = jc.Version.Label
		return msg
	}
}

func fetchVersionCmd(client *api.Client, productID int64, label string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()

		v, err := client.GetVersion(ctx, productID, label)
		if errors.Is(err, api.ErrNotFound) {
			return versionFetchedMsg{label: label, notFound: true}
		}
		if err != nil {
			return versionFetchedMsg{label: label, err: err}
		}
		return versionFetchedMsg{label: label, version: v}
	}
}

func fetchJobCmd(client *api.Client, jobID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()

		j, err := client.GetJob(ctx, jobID)
		if errors.Is(err, api.ErrNotFound) {
			return jobFetchedMsg{jobID: jobID, notFound: true}
		}
		if err != nil {
			return jobFetchedMsg{jobID: jobID, err: err}
		}
		return jobFetchedMsg{jobID: jobID, job: j}
	}
}

func cancelJobCmd(client *api.Client, jobID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()
		return jobCancelDoneMsg{jobID: jobID, err: client.CancelJob(ctx, jobID)}
	}
}

func updateJobShareCmd(client *api.Client, jobID int64, public bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()
		j, err := client.UpdateJob(ctx, jobID, model.JobPatch{Public: &public})
		return jobUpdatedMsg{job: j, err: err}
	}
}
