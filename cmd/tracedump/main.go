// tracedump — offline reader for captured traces.
// Decodes the binary value log, the unit execution ledger, and the
// persisted unit definitions, and can tail a value log while a capture
// is still running.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ReverseTools/panda/pkg/replay"
	"github.com/ReverseTools/panda/pkg/trace"
	"github.com/ReverseTools/panda/pkg/unit"
	"github.com/ReverseTools/panda/pkg/version"
)

func main() {
	root := &cobra.Command{
		Use:     "tracedump",
		Short:   "Decode and inspect captured execution traces",
		Version: version.GetVersionInfo(),
	}

	root.AddCommand(newEventsCmd())
	root.AddCommand(newLedgerCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newUnitsCmd())
	root.AddCommand(newFollowCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newEventsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events <value-log>",
		Short: "Print decoded value log records in capture order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := replay.ReadValueLog(args[0])
			if err != nil {
				return err
			}
			for i, ev := range events {
				if limit > 0 && i >= limit {
					fmt.Printf("... %d more\n", len(events)-limit)
					break
				}
				printEvent(i, ev)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Print at most this many records (0 = all)")
	return cmd
}

func printEvent(idx int, ev trace.Event) {
	if ev.Kind == trace.ExceptionEntry {
		fmt.Printf("%8d  %-12s\n", idx, ev.Kind)
		return
	}
	fmt.Printf("%8d  %-12s %-7s %#016x\n", idx, ev.Kind, ev.Op, ev.Payload)
}

func newLedgerCmd() *cobra.Command {
	var taintOnly bool
	cmd := &cobra.Command{
		Use:   "ledger <ledger-file>",
		Short: "Print the unit execution ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := replay.ReadLedger(args[0])
			if err != nil {
				return err
			}
			seq := 0
			for _, entry := range entries {
				if entry.Taint != nil {
					fmt.Printf("          taint %-5s addr=%#x len=%d\n",
						entry.Taint.Direction, entry.Taint.Addr, entry.Taint.Length)
					continue
				}
				if !taintOnly {
					fmt.Printf("%8d  %s\n", seq, entry.UnitName)
				}
				seq++
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&taintOnly, "taint-only", false, "Print only taint boundary records")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <value-log> <ledger-file>",
		Short: "Summarize a capture: executions, event mix, faults, taint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := replay.ReadValueLog(args[0])
			if err != nil {
				return err
			}
			entries, err := replay.ReadLedger(args[1])
			if err != nil {
				return err
			}
			s := replay.Summarize(events, entries)
			fmt.Printf("unit executions: %d\n", s.UnitExecutions)
			fmt.Printf("events:          %d\n", s.Events)
			fmt.Printf("faults:          %d\n", s.Faults)
			for kind, n := range s.ByKind {
				fmt.Printf("  kind %-12s %d\n", kind, n)
			}
			for op, n := range s.ByOp {
				fmt.Printf("  op   %-12s %d\n", op, n)
			}
			fmt.Printf("taint reads:     %d\n", s.TaintReads)
			fmt.Printf("taint writes:    %d\n", s.TaintWrites)
			fmt.Printf("taint bytes:     %d\n", s.TaintBytes)
			return nil
		},
	}
}

func newUnitsCmd() *cobra.Command {
	var resolveLedger string
	cmd := &cobra.Command{
		Use:   "units <units-db>",
		Short: "List persisted unit definitions, or resolve a ledger against them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := unit.OpenStore(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			if session, err := store.SessionID(); err == nil {
				fmt.Printf("capture session: %s\n", session)
			}

			if resolveLedger == "" {
				units, err := store.All()
				if err != nil {
					return err
				}
				for _, u := range units {
					fmt.Printf("%6d  %s\n", u.CompileSeq, u)
				}
				return nil
			}

			entries, err := replay.ReadLedger(resolveLedger)
			if err != nil {
				return err
			}
			resolver, err := replay.NewResolver(store)
			if err != nil {
				return err
			}
			executed, err := resolver.Resolve(entries)
			if err != nil {
				return err
			}
			for _, ex := range executed {
				if !ex.Known {
					fmt.Printf("%8d  <unknown unit>\n", ex.Seq)
					continue
				}
				fmt.Printf("%8d  %s\n", ex.Seq, ex.Unit)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&resolveLedger, "resolve", "r", "", "Resolve this ledger file against the store")
	return cmd
}

func newFollowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <value-log>",
		Short: "Tail a running capture, decoding records as they are flushed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			i := 0
			return replay.Follow(ctx, args[0], func(ev trace.Event) {
				printEvent(i, ev)
				i++
			})
		},
	}
}
