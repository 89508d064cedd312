// Package main provides the entry point for v7sim.
// v7sim is a functional ARMv7-A CPU emulator.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/v7sim/config"
	"github.com/sarchlab/v7sim/diag"
	"github.com/sarchlab/v7sim/emu"
	"github.com/sarchlab/v7sim/icache"
	"github.com/sarchlab/v7sim/loader"
	"github.com/sarchlab/v7sim/memory"
	"github.com/sarchlab/v7sim/timing/latency"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath   string
	verbose      bool
	trace        bool
	raw          bool
	base         uint64
	max          uint64
	semihost     bool
	snapshotPath string
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("v7sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to machine configuration JSON file")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.BoolVar(&opts.trace, "trace", false, "Print every retired instruction")
	fs.BoolVar(&opts.raw, "raw", false, "Load the program as a raw binary image")
	fs.Uint64Var(&opts.base, "base", 0, "Load address of a raw image (default: RAM base)")
	fs.Uint64Var(&opts.max, "max", 0, "Maximum instructions to execute (0: config value)")
	fs.BoolVar(&opts.semihost, "semihost", false, "Enable ARM semihosting")
	fs.StringVar(&opts.snapshotPath, "snapshot", "", "Write the final core state to this JSON file")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		return 1
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(stderr, "Usage: v7sim [options] <program>\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
		return 1
	}
	programPath := fs.Arg(0)

	cfg, err := loadMachineConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	logger := newLogger(cfg, stderr)

	prog, err := loadProgram(opts, cfg, programPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	logger.WithFields(logrus.Fields{
		"program":  programPath,
		"entry":    fmt.Sprintf("0x%08X", prog.EntryPoint),
		"segments": len(prog.Segments),
	}).Info("program loaded")

	emulator := emu.NewEmulator(emulatorOptions(cfg, logger, stdin, stdout, stderr)...)
	if cfg.Trace {
		emulator.AcceptHook(diag.NewTracer(stderr))
	}
	estimator := latency.NewEstimator(latency.NewTableWithConfig(&cfg.Timing))
	emulator.AcceptHook(estimator)
	if err := emulator.LoadProgram(prog); err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	exitCode := emulator.Run()

	if opts.snapshotPath != "" {
		if err := writeSnapshot(emulator, opts.snapshotPath); err != nil {
			fmt.Fprintf(stderr, "Error writing snapshot: %v\n", err)
		}
	}

	if opts.verbose {
		printStats(stdout, programPath, exitCode, emulator, estimator.Stats())
	}

	return int(exitCode)
}

// loadMachineConfig reads the config file and applies the flag overrides.
func loadMachineConfig(opts *options) (*config.MachineConfig, error) {
	cfg := config.DefaultMachineConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	if opts.trace {
		cfg.Trace = true
	}
	if opts.semihost {
		cfg.Semihosting = true
	}
	if opts.max != 0 {
		cfg.MaxInstructions = opts.max
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.MachineConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	level, _ := cfg.Level()
	logger.SetLevel(level)
	return logger
}

func loadProgram(opts *options, cfg *config.MachineConfig, path string) (*loader.Program, error) {
	if !opts.raw {
		return loader.Load(path)
	}

	base := uint32(opts.base)
	if opts.base == 0 {
		base = cfg.RAMBase
	}
	return loader.LoadRaw(path, base)
}

func emulatorOptions(
	cfg *config.MachineConfig,
	logger *logrus.Logger,
	stdin io.Reader,
	stdout, stderr io.Writer,
) []emu.EmulatorOption {
	opts := []emu.EmulatorOption{
		emu.WithBus(memory.NewRAM(cfg.RAMBase, cfg.RAMSize)),
		emu.WithDiagnostics(diag.NewLogrusSink(logger)),
		emu.WithSemihosting(cfg.Semihosting),
		emu.WithStdin(stdin),
		emu.WithStdout(stdout),
		emu.WithStderr(stderr),
		emu.WithMaxInstructions(cfg.MaxInstructions),
		emu.WithHighVectors(cfg.HighVectors),
		emu.WithNMFI(cfg.NMFI),
	}
	if cfg.DecodeCacheSets > 0 {
		opts = append(opts, emu.WithDecodeCache(icache.Config{
			Sets: cfg.DecodeCacheSets,
			Ways: cfg.DecodeCacheWays,
		}))
	}
	return opts
}

func writeSnapshot(emulator *emu.Emulator, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := emulator.Save().Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printStats(
	w io.Writer,
	programPath string,
	exitCode int64,
	emulator *emu.Emulator,
	timing latency.Statistics,
) {
	fmt.Fprintf(w, "\nProgram: %s\n", programPath)
	fmt.Fprintf(w, "Exit code: %d\n", exitCode)
	fmt.Fprintf(w, "Instructions executed: %d\n", emulator.InstructionCount())
	fmt.Fprintf(w, "Final mode: %s\n", emu.ModeName(emulator.RegFile().Mode()))
	fmt.Fprintf(w, "Estimated cycles: %d (CPI %.2f)\n", timing.Cycles, timing.CPI())

	if c := emulator.DecodeCache(); c != nil {
		stats := c.Stats()
		hitRate := 0.0
		if stats.Lookups > 0 {
			hitRate = 100.0 * float64(stats.Hits) / float64(stats.Lookups)
		}
		fmt.Fprintf(w, "Decode cache: %d lookups, %.1f%% hits, %d invalidations\n",
			stats.Lookups, hitRate, stats.Invalidations)
	}
}
