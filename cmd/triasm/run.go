package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/triasm-dev/triasm/interp"
	"github.com/triasm-dev/triasm/job"
	"github.com/triasm-dev/triasm/loader"
	"github.com/triasm-dev/triasm/vm"
)

var (
	inputFlag     string
	jobFlag       string
	maxTicksFlag  int
	dumpStateFlag string
	debugFlag     bool
)

var runCmd = &cobra.Command{
	Use:   "run [PROGRAM]",
	Short: "Interpret a program",
	Long:  "Load an XML program document, execute it and exit with the interpreter's exit code.",
	Args:  cobra.MaximumNArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().StringVar(&inputFlag, "input", "", "Read program input from a file instead of stdin")
	runCmd.Flags().StringVar(&jobFlag, "job", "", "Load the run description from a TOML job file")
	runCmd.Flags().IntVar(&maxTicksFlag, "max-ticks", 0, "Abort after this many executed instructions (0 = unlimited)")
	runCmd.Flags().StringVar(&dumpStateFlag, "dump-state", "", "Write a state snapshot to this file on termination")
	runCmd.Flags().BoolVar(&debugFlag, "debug", false, "Print the loaded program before executing")
}

func runCommand(cmd *cobra.Command, args []string) {
	details := job.RunDetails{
		Program:   "",
		Input:     inputFlag,
		MaxTicks:  maxTicksFlag,
		DumpState: dumpStateFlag,
	}
	if jobFlag != "" {
		j, err := job.LoadFromFile(jobFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load job file")
		}
		details = j.Run
		if j.Log.Level != "" {
			if level, err := zerolog.ParseLevel(j.Log.Level); err == nil {
				zerolog.SetGlobalLevel(level)
			}
		}
	}
	if len(args) > 0 {
		details.Program = args[0]
	}
	if details.Program == "" {
		log.Fatal().Msg("No program given: pass a file or --job")
	}

	prog, err := loader.LoadFile(details.Program)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err))
		os.Exit(vm.ExitCode(err))
	}
	if debugFlag {
		prog.DebugPrint()
	}

	ex := interp.New(prog)
	ex.MaxTicks = details.MaxTicks
	if details.Input != "" {
		f, err := os.Open(details.Input)
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't open input file")
		}
		defer f.Close()
		ex.In = interp.NewLineInput(f)
	}

	code, err := ex.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err))
	}

	if details.DumpState != "" {
		if err := dumpState(ex, details.DumpState); err != nil {
			log.Error().Err(err).Msg("Couldn't write state snapshot")
		}
	}

	os.Exit(code)
}

func dumpState(ex *interp.Executor, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ex.Snapshot().Serialize(f)
}
