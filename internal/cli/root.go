package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	var err error
	switch args[0] {
	case "job":
		err = runJob(args[1:])
	case "jobs":
		err = runJobs(args[1:])
	case "cancel":
		err = runCancel(args[1:])
	case "share":
		err = runShare(args[1:])
	case "config":
		err = runConfig(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	return err
}

func printRootUsage() {
	fmt.Println("planhub: installation job console for plan-based product installs")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  planhub config token=<api token>")
	fmt.Println("  planhub jobs --product <slug>")
	fmt.Println("  planhub job --job-id <id>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  job     interactive job detail view (status, progress, cancel, share)")
	fmt.Println("  jobs    list recent installation jobs")
	fmt.Println("  cancel  cancel an in-progress installation job")
	fmt.Println("  share   set an installation job public or private")
	fmt.Println("  config  show/update CLI configuration")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - The job view falls back to a JSON snapshot when stdout is not a TTY")
}
