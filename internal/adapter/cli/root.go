package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdrews/pentestgen/internal/store"
	"github.com/mdrews/pentestgen/internal/usecase/generate"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// GenerateRequest captures everything the generate command collects from
// flags before handing off to the pipeline.
type GenerateRequest struct {
	Count       int
	Output      string
	Provider    string
	Profile     string
	Seed        uint64
	SeedSet     bool
	Concurrency int
	Progress    func(index int, err error)
}

// DatasetGenerator defines the dependency required to run the generate command.
type DatasetGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (generate.BatchResult, error)
}

// RunLister defines the dependency required to run the runs command.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Generator       DatasetGenerator
	Runs            RunLister
	Args            Arguments
	DefaultCount    int
	DefaultOutput   string
	DefaultProvider string
	Version         string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "pentestgen",
		Short: "Synthetic pentest command dataset generator",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(generateCommand(deps))
	root.AddCommand(runsCommand(deps.Runs))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func generateCommand(deps Dependencies) *cobra.Command {
	var count int
	var output string
	var providerName string
	var profileName string
	var seed uint64
	var concurrency int

	defaultCount := deps.DefaultCount
	if defaultCount == 0 {
		defaultCount = 1
	}
	defaultOutput := deps.DefaultOutput
	if defaultOutput == "" {
		defaultOutput = "synthetic_pen_test_data.jsonl"
	}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic query and command samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be a positive integer")
			}
			if providerName != "" && profileName != "" {
				return fmt.Errorf("--provider and --profile are mutually exclusive")
			}

			req := GenerateRequest{
				Count:       count,
				Output:      output,
				Provider:    providerName,
				Profile:     profileName,
				Seed:        seed,
				SeedSet:     cmd.Flags().Changed("seed"),
				Concurrency: concurrency,
			}

			if isTerminal(os.Stderr.Fd()) {
				req.Progress = progressPrinter(cmd.ErrOrStderr(), count)
			}

			result, err := deps.Generator.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d/%d samples to %s (%d failed)\n",
				result.Succeeded, result.Requested, output, result.Failed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", defaultCount, "Number of samples to generate")
	cmd.Flags().StringVarP(&output, "output", "o", defaultOutput, "Dataset file to append to")
	cmd.Flags().StringVar(&providerName, "provider", deps.DefaultProvider, "Provider to use (ollama, openai, anthropic, static)")
	cmd.Flags().StringVar(&profileName, "profile", "", "Inference profile to use instead of a named provider")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Batch seed for reproducible scenario selection")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of samples to generate in parallel")

	return cmd
}

func runsCommand(runs RunLister) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs == nil {
				return fmt.Errorf("run history store is disabled")
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be a positive integer")
			}

			history, err := runs.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(history) == 0 {
				_, _ = fmt.Fprintln(out, "no runs recorded")
				return nil
			}

			_, _ = fmt.Fprintf(out, "%-36s  %-20s  %-10s  %9s  %7s  %s\n",
				"RUN", "TIMESTAMP", "PROVIDER", "OK/TOTAL", "TIME", "OUTPUT")
			for _, run := range history {
				_, _ = fmt.Fprintf(out, "%-36s  %-20s  %-10s  %4d/%-4d  %7s  %s\n",
					run.RunID,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Provider,
					run.Succeeded,
					run.Requested,
					run.Duration.Round(runDurationPrecision),
					run.OutputPath,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show")

	return cmd
}

// progressPrinter returns a callback that reports per-sample outcomes.
func progressPrinter(w io.Writer, total int) func(index int, err error) {
	return func(index int, err error) {
		if err != nil {
			_, _ = fmt.Fprintf(w, "sample %d/%d failed: %v\n", index+1, total, err)
			return
		}
		_, _ = fmt.Fprintf(w, "sample %d/%d done\n", index+1, total)
	}
}
