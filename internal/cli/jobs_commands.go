package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"planhub/internal/api"
	"planhub/internal/config"
	"planhub/internal/logging"
	"planhub/internal/model"
)

func newAPIClient(configPath string) (*api.Client, config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	log, closeLog, err := logging.NewFileLogger(cfg.LogFile)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return api.NewClient(cfg.APIBaseURL, cfg.Token, log), cfg, closeLog, nil
}

func runJobs(args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	product := fs.String("product", "", "filter by product slug")
	plan := fs.String("plan", "", "filter by plan slug")
	limit := fs.Int("limit", 20, "maximum number of jobs to list")
	configPath := fs.String("config", "", "config path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, _, closeLog, err := newAPIClient(*configPath)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
	defer cancel()
	jobs, err := client.ListJobs(ctx, api.ListJobsOptions{
		ProductSlug: strings.TrimSpace(*product),
		PlanSlug:    strings.TrimSpace(*plan),
		Limit:       *limit,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(jobs)
	}

	if len(jobs) == 0 {
		fmt.Println("no installation jobs found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job", "Status", "Steps", "Editable", "Created")
	for _, j := range jobs {
		table.Append(
			strconv.FormatInt(j.ID, 10),
			model.StatusLabel(j.Status),
			strconv.Itoa(len(j.Results)),
			yesNo(j.UserCanEdit),
			j.Created,
		)
	}
	table.Render()
	return nil
}

type cancelResult struct {
	JobID     int64  `json:"job_id"`
	Requested bool   `json:"requested"`
	Status    string `json:"status,omitempty"`
}

func runCancel(args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	jobID := fs.Int64("job-id", 0, "installation job id")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	configPath := fs.String("config", "", "config path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobID <= 0 {
		return errors.New("--job-id is required")
	}

	client, _, closeLog, err := newAPIClient(*configPath)
	if err != nil {
		return err
	}
	defer closeLog()

	getCtx, getCancel := context.WithTimeout(context.Background(), effectTimeout)
	job, err := client.GetJob(getCtx, *jobID)
	getCancel()
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("installation job %d not found", *jobID)
		}
		return err
	}
	if !model.CanCancel(&job) {
		return fmt.Errorf("job %d cannot be canceled (status=%s editable=%s)", job.ID, job.Status, yesNo(job.UserCanEdit))
	}

	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("Cancel installation job %d? [y/N] ", job.ID))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("cancel aborted")
			return nil
		}
	}

	// The prompt can sit open indefinitely, so the cancel request gets
	// its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
	defer cancel()
	if err := client.CancelJob(ctx, job.ID); err != nil {
		return err
	}
	result := cancelResult{JobID: job.ID, Requested: true, Status: job.Status}
	if *jsonOut {
		return printJSON(result)
	}
	fmt.Printf("cancel requested for job %d\n", job.ID)
	return nil
}

type shareResult struct {
	JobID    int64  `json:"job_id"`
	Public   bool   `json:"is_public"`
	ShareURL string `json:"share_url,omitempty"`
}

func runShare(args []string) error {
	fs := flag.NewFlagSet("share", flag.ContinueOnError)
	jobID := fs.Int64("job-id", 0, "installation job id")
	public := fs.Bool("public", false, "make the job publicly viewable")
	private := fs.Bool("private", false, "make the job private")
	configPath := fs.String("config", "", "config path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jobID <= 0 {
		return errors.New("--job-id is required")
	}
	if *public == *private {
		return errors.New("exactly one of --public or --private is required")
	}

	client, _, closeLog, err := newAPIClient(*configPath)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
	defer cancel()

	job, err := client.UpdateJob(ctx, *jobID, model.JobPatch{Public: public})
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return fmt.Errorf("installation job %d not found", *jobID)
		}
		return err
	}

	result := shareResult{JobID: job.ID, Public: job.Public, ShareURL: job.ShareURL}
	if *jsonOut {
		return printJSON(result)
	}
	if job.Public {
		fmt.Printf("job %d is public", job.ID)
		if job.ShareURL != "" {
			fmt.Printf(": %s", job.ShareURL)
		}
		fmt.Println()
	} else {
		fmt.Printf("job %d is private\n", job.ID)
	}
	return nil
}
