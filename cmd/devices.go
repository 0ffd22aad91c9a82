package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cwbudde/clfib/internal/opencl"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List OpenCL platforms and devices",
	Long:  `Display every OpenCL platform with its devices, including type and compute units.`,
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	platforms, err := opencl.EnumeratePlatforms()
	if err != nil {
		return err
	}
	printPlatforms(cmd.OutOrStdout(), platforms)
	return nil
}

func printPlatforms(out io.Writer, platforms []opencl.PlatformInfo) {
	if len(platforms) == 0 {
		fmt.Fprintln(out, "No OpenCL platforms found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tDEVICE\tTYPE\tCOMPUTE UNITS\tVERSION")
	fmt.Fprintln(w, "--------\t------\t----\t-------------\t-------")

	for _, p := range platforms {
		if len(p.Devices) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%s\n", p.Name, p.Version)
			continue
		}
		for _, d := range p.Devices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.Name, d.Name, d.Type, d.MaxComputeUnits, d.Version)
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal platforms: %d\n", len(platforms))
}
