// Command chainrun runs the validate → double → save chain once, or
// repeatedly on a cron schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nomis52/eventchain/buildinfo"
	"github.com/nomis52/eventchain/chain"
	"github.com/nomis52/eventchain/config"
)

// Args holds the parsed command line.
type Args struct {
	ConfigPath  string
	ShowVersion bool
	Validate    bool

	// Overrides; the Has* fields record whether the flag was given.
	Input    int
	HasInput bool
	Policy   string
	Schedule string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout, stderr io.Writer) error {
	args, err := parseArgs(argv, stderr)
	if err != nil {
		return err
	}

	if args.ShowVersion {
		showVersion(stdout)
		return nil
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if args.Validate {
		fmt.Fprintf(stdout, "Configuration validation successful: %s\n", describeSource(args.ConfigPath))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, stdout)
	if err != nil {
		return err
	}
	defer a.close()
	return a.run(ctx)
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(args Args) (config.Config, error) {
	cfg := config.Default()
	if args.ConfigPath != "" {
		var err error
		cfg, err = config.LoadConfig(args.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if args.HasInput {
		cfg.Chain.Input = args.Input
	}
	if args.Policy != "" {
		p, err := chain.ParseFaultTolerance(args.Policy)
		if err != nil {
			return cfg, err
		}
		cfg.Chain.FaultTolerance = p
	}
	if args.Schedule != "" {
		cfg.Schedule.Cron = args.Schedule
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func describeSource(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}

func showVersion(w io.Writer) {
	props := buildinfo.Get()
	fmt.Fprintf(w, "chainrun %s\n", props.Version)
	fmt.Fprintf(w, "Built: %s\n", props.BuildTime)
	fmt.Fprintf(w, "Commit: %s\n", props.GitCommit)
}

func parseArgs(argv []string, stderr io.Writer) (Args, error) {
	fs := flag.NewFlagSet("chainrun", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to config file")
	configPathShort := fs.String("c", "", "Path to config file (shorthand)")
	showVersion := fs.Bool("version", false, "Show version information")
	versionShort := fs.Bool("v", false, "Show version information (shorthand)")
	validate := fs.Bool("validate", false, "Validate configuration and exit")
	input := fs.Int("input", 0, "Input value, overrides chain.input")
	policy := fs.String("policy", "", "Fault tolerance: strict, lenient or bestEffort")
	schedule := fs.String("schedule", "", `Cron schedule, e.g. "*/5 * * * *"; runs until interrupted`)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: chainrun [options]\n")
		fmt.Fprintf(stderr, "\nRuns the validate, double and save chain.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  chainrun --input 21\n")
		fmt.Fprintf(stderr, "  chainrun --config chainrun.yaml --policy lenient\n")
		fmt.Fprintf(stderr, "  chainrun --config chainrun.yaml --schedule \"0 * * * *\"\n")
		fmt.Fprintf(stderr, "  chainrun --config chainrun.yaml --validate\n")
	}

	if err := fs.Parse(argv); err != nil {
		return Args{}, err
	}
	if fs.NArg() > 0 {
		return Args{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	args := Args{
		ConfigPath:  path,
		ShowVersion: *showVersion || *versionShort,
		Validate:    *validate,
		Input:       *input,
		Policy:      *policy,
		Schedule:    *schedule,
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "input" {
			args.HasInput = true
		}
	})
	return args, nil
}
