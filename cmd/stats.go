package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/protoengine/datarecording"
	"github.com/sarchlab/protoengine/platform"
)

var statsSlowest int

var statsCmd = &cobra.Command{
	Use:   "stats DB_FILE",
	Short: "Print the engine statistics stored by `run --db`.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		rec, err := platform.ReadRecording(cmd.Context(), reader, statsSlowest)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		return printRecording(cmd, rec)
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsSlowest, "slowest", 10,
		"Number of the slowest transactions to list.")

	rootCmd.AddCommand(statsCmd)
}

func printRecording(cmd *cobra.Command, rec platform.Recording) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "engine\trole\tthreads\tavg life\tavg uops\tqueue wait\t"+
		"cancels\tinstructions\terrors")
	for _, e := range rec.Engines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t%.1f\t%.1f\t%d\t%d\t%d\n",
			e.Engine, e.Role, e.ThreadsCreated, e.AvgThreadLifetime,
			e.AvgThreadUops, e.AvgQueueWait, e.Cancellations,
			e.Instructions, e.ProtocolErrors)
	}

	fmt.Fprintf(tw, "\n%d transactions, slowest:\n", rec.Transactions)
	fmt.Fprintln(tw, "id\taddress\tinitiator\tresponder\tfill\tlatency")
	for _, t := range rec.Slowest {
		fmt.Fprintf(tw, "%s\t%#x\t%d\t%d\t%s/%s\t%d\n",
			t.ID, t.Address, t.Initiator, t.Responder,
			t.FillType, t.FillLevel, t.Latency)
	}

	return tw.Flush()
}
