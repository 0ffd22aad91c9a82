package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/clfib/internal/fib"
	"github.com/cwbudde/clfib/internal/kernel"
	"github.com/cwbudde/clfib/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	logLevel    string
	backendName string
	kernelPath  string
	entryName   string
	tracePath   string
	logger      *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clfib [number]",
	Short: "Compute a Fibonacci number on an OpenCL device",
	Long: `clfib compiles a small OpenCL kernel at startup, runs it for one
work item on the default device and prints the result as an integer.`,
	Args:          usageArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelWarn
		}

		// stdout carries the result only.
		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
	RunE: runFib,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&backendName, "backend", string(fib.BackendOpenCL), "Compute backend ("+backendList()+")")
	rootCmd.Flags().StringVar(&kernelPath, "kernel", "", "Path of a substitute OpenCL kernel source")
	rootCmd.Flags().StringVar(&entryName, "entry", kernel.FibEntry, "Kernel entry point name")
	rootCmd.Flags().StringVar(&tracePath, "trace", "", "Append a JSON line describing the run to this file")
}

func backendList() string {
	names := make([]string, 0, len(fib.SupportedBackends()))
	for _, b := range fib.SupportedBackends() {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}

func usageArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.Errorf("usage of %s: [number]", cmd.Root().Name())
	}
	return nil
}

func runFib(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return errors.Errorf("invalid number %q", args[0])
	}

	src, err := loadKernel()
	if err != nil {
		return err
	}

	computer, err := fib.NewComputerForBackend(backendName, src)
	if err != nil {
		return err
	}

	record := store.NewDispatchRecord(n, string(computer.Backend()))
	if computer.Backend() == fib.BackendOpenCL {
		record.Kernel = src.Name + "@" + src.Version
	}

	slog.Debug("Starting dispatch", "n", n, "backend", computer.Backend(), "kernel", src.Name, "entry", src.Entry)

	start := time.Now()
	result, err := fib.Value(computer, n)
	record.Elapsed = time.Since(start)
	record.Device = computer.Device()
	if err != nil {
		record.Error = err.Error()
	} else {
		record.Result = result
	}
	writeTrace(record)

	if err != nil {
		return err
	}

	slog.Info("Dispatch complete",
		"n", n,
		"result", result,
		"backend", computer.Backend(),
		"device", record.Device,
		"elapsed", record.Elapsed,
	)

	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

func loadKernel() (kernel.Source, error) {
	if kernelPath == "" {
		src := kernel.Fib()
		if entryName != "" {
			src.Entry = entryName
		}
		return src, nil
	}
	return kernel.Load(kernelPath, entryName)
}

// writeTrace appends record to the trace file. Trace failures are logged
// and never change the outcome of the run.
func writeTrace(record store.DispatchRecord) {
	if tracePath == "" {
		return
	}

	writer, err := store.NewTraceWriter(tracePath)
	if err != nil {
		slog.Warn("Failed to open trace", "path", tracePath, "error", err)
		return
	}
	if err := writer.Write(record); err != nil {
		slog.Warn("Failed to write trace", "path", tracePath, "error", err)
	}
	if err := writer.Close(); err != nil {
		slog.Warn("Failed to close trace", "path", tracePath, "error", err)
	}
}
