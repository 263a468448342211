package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atmx/sim-engine/internal/report"
	"github.com/atmx/sim-engine/internal/scenario"
)

var (
	replayFormat   string
	replayCurrency string
)

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml>",
	Short: "Replay a scripted scenario offline and print its report",
	Long: `Replay runs a YAML scenario (configuration, per-step quotes and
scripted orders) to completion without the HTTP service and prints the
resulting performance report.

Examples:
  sim-engine replay run.yaml
  sim-engine replay run.yaml --format json --currency EUR`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayFormat, "format", "text", "Output format (text|json)")
	replayCmd.Flags().StringVar(&replayCurrency, "currency", report.DefaultCurrency, "ISO 4217 display currency")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	res, err := scenario.Run(f, report.NewBuilder(nil, replayCurrency))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(replayFormat) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "text":
		printReplay(out, f, res)
		return nil
	}
	return fmt.Errorf("unknown format %q", replayFormat)
}

func printReplay(w io.Writer, f scenario.File, res scenario.Result) {
	r := res.Report
	if f.Name != "" {
		fmt.Fprintf(w, "%s\n\n", f.Name)
	}
	fmt.Fprintf(w, "Grade %s (%d) %s\n", r.Grade.Letter, r.Grade.Score, r.Grade.Description)
	fmt.Fprintf(w, "Final value   %s\n", report.FormatMoney(r.Overview.FinalValue, r.Currency))
	fmt.Fprintf(w, "Profit        %s (%.2f%%)\n", report.FormatSignedMoney(r.Overview.Profit, r.Currency), r.Overview.ReturnPct)
	fmt.Fprintf(w, "Benchmark     %.2f%%\n", r.Overview.BenchmarkReturnPct)
	fmt.Fprintf(w, "Trades        %d (win rate %.1f%%)\n", r.TradeStats.TotalTrades, r.TradeStats.WinRate)
	fmt.Fprintf(w, "Investor type %s\n\n", r.BehavioralProfile.InvestorType.Label)

	for _, line := range r.Narrative {
		fmt.Fprintln(w, line)
	}
	if len(res.Rejected) > 0 {
		fmt.Fprintf(w, "\nRejected orders:\n")
		for _, rej := range res.Rejected {
			fmt.Fprintf(w, "  step %d %s %d %s: %s\n", rej.Order.Step, rej.Order.Side, rej.Order.Quantity, rej.Order.Symbol, rej.Reason)
		}
	}
}
