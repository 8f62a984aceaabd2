package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/iplcsim/config"
)

// rootCmd represents the base command.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iplcsim [trace-file]",
		Short: "Trace-driven MIPS cache and pipeline simulator.",
		Long: `iplcsim replays a MIPS instruction trace through a set-associative ` +
			`cache and a 5-stage in-order pipeline, then reports cache hit ` +
			`rates, cycles, CPI and branch prediction accuracy.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	flags := cmd.Flags()
	flags.String("config", "", "JSON or YAML configuration file")
	flags.String("env-file", ".env", "file of IPLCSIM_* settings")
	flags.String("trace", "", "instruction trace file (.gz accepted)")
	flags.Int("index", 0, "cache index bits")
	flags.Int("block", 0, "cache block size in words")
	flags.Int("assoc", 0, "cache associativity")
	flags.Bool("predict-taken", false, "predict branches taken")
	flags.Uint64("miss-delay", 0, "cycles charged for a cache miss")
	flags.Bool("dump", false, "print the pipeline after every instruction")
	flags.BoolP("verbose", "v", false, "log every cache access")
	flags.Bool("json", false, "print the report as JSON")
	flags.BoolP("interactive", "i", false, "prompt for the trace and cache parameters")
	flags.String("trace-output", "", "record events to \"csv\" or \"sqlite\"")
	flags.String("trace-output-path", "", "trace output file without extension")

	return cmd
}

// Execute runs the root command and exits through atexit so that trace
// writers get flushed.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if interactive {
		if err := prompt(cmd.InOrStdin(), cmd.OutOrStdout(), cfg); err != nil {
			return err
		}
	}

	if cfg.Trace == "" {
		return fmt.Errorf("no trace file given")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")

	return simulate(cmd.Context(), cfg, cmd.OutOrStdout(), jsonOut)
}

// buildConfig layers defaults, the config file, the env file and the
// environment, and finally the flags the user set.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()

	cfg := config.DefaultConfig()

	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	envFile, _ := flags.GetString("env-file")
	if err := cfg.ApplyEnvFile(envFile); err != nil {
		return nil, err
	}

	if flags.Changed("trace") {
		cfg.Trace, _ = flags.GetString("trace")
	}
	if len(args) == 1 {
		cfg.Trace = args[0]
	}
	if flags.Changed("index") {
		cfg.Cache.IndexBits, _ = flags.GetInt("index")
	}
	if flags.Changed("block") {
		cfg.Cache.BlockWords, _ = flags.GetInt("block")
	}
	if flags.Changed("assoc") {
		cfg.Cache.Associativity, _ = flags.GetInt("assoc")
	}
	if flags.Changed("predict-taken") {
		cfg.PredictTaken, _ = flags.GetBool("predict-taken")
	}
	if flags.Changed("miss-delay") {
		cfg.Timing.CacheMissDelay, _ = flags.GetUint64("miss-delay")
	}
	if flags.Changed("dump") {
		cfg.Dump, _ = flags.GetBool("dump")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("trace-output") {
		cfg.TraceOutput, _ = flags.GetString("trace-output")
	}
	if flags.Changed("trace-output-path") {
		cfg.TraceOutputPath, _ = flags.GetString("trace-output-path")
	}

	return cfg, nil
}
