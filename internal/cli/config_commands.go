package cli

import (
	"flag"
	"fmt"
	"strings"

	"planhub/internal/config"
)

// runConfig shows the current configuration, or applies key=value
// assignments passed as arguments and saves the result.
func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	configPath := fs.String("config", "", "config path (defaults to the user config directory)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	assignments := fs.Args()
	for _, assignment := range assignments {
		key, value, found := strings.Cut(assignment, "=")
		if !found {
			return fmt.Errorf("invalid assignment %q (expected key=value)", assignment)
		}
		cfg, err = config.Set(cfg, key, value)
		if err != nil {
			return err
		}
	}
	if len(assignments) > 0 {
		if err := config.Save(*configPath, cfg); err != nil {
			return err
		}
	}

	shown := config.Redacted(cfg)
	if *jsonOut {
		return printJSON(shown)
	}
	fmt.Println(kv("api_base_url", shown.APIBaseURL))
	fmt.Println(kv("console_base_url", shown.ConsoleBaseURL))
	fmt.Println(kv("token", shown.Token))
	fmt.Println(kv("log_file", shown.LogFile))
	if len(assignments) > 0 {
		fmt.Println("config updated")
	}
	return nil
}
