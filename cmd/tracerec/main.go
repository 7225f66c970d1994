// tracerec — scripted capture harness.
// Drives a tracing context through a short synthetic unit sequence
// (normal completions, a fault diversion, taint-matched syscalls) so
// the whole capture pipeline can be exercised and inspected without a
// host execution engine. The produced files are real: tracedump reads
// them like any other capture.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/ReverseTools/panda/pkg/config"
	"github.com/ReverseTools/panda/pkg/replay"
	"github.com/ReverseTools/panda/pkg/taint"
	"github.com/ReverseTools/panda/pkg/trace"
	"github.com/ReverseTools/panda/pkg/unit"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file")
	flag.Parse()

	cfg := config.FromEnvironment()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	ctx, err := trace.NewContext(cfg.ContextOptions())
	if err != nil {
		log.Fatalf("Failed to create tracing context: %v", err)
	}

	fmt.Printf("Capture session %s\n", ctx.SessionID())
	fmt.Printf("  value log: %s\n", cfg.ValueLog)
	fmt.Printf("  ledger:    %s\n", cfg.Ledger)
	fmt.Printf("  units db:  %s\n", cfg.UnitsDB)

	// Compilation pass: three translated units.
	unitA := mustRegister(ctx, "tcg-llvm-tb-0-4006a0", 0x4006a0, 18)
	unitB := mustRegister(ctx, "tcg-llvm-tb-1-4006c0", 0x4006c0, 12)
	unitC := mustRegister(ctx, "tcg-llvm-tb-2-4006e0", 0x4006e0, 24)

	// Unit A: three loads and a store, completes normally.
	mustHook(ctx.BeforeUnitExec(unitA))
	ctx.LogDynval(trace.AddressEntry, trace.OpLoad, 0x7fff0010)
	ctx.LogDynval(trace.AddressEntry, trace.OpLoad, 0x7fff0018)
	ctx.LogDynval(trace.AddressEntry, trace.OpLoad, 0x7fff0020)
	ctx.LogDynval(trace.AddressEntry, trace.OpStore, 0x7fff0028)
	mustHook(ctx.AfterUnitExec(unitA, &unitB))

	// The guest opens its input file and reads 128 bytes: the taint
	// boundary designates the descriptor and logs the buffer.
	mustHook(ctx.SyscallReturn(taint.NROpen, []int64{0, 0}, "/home/guest/input.txt", 0, 5))
	mustHook(ctx.SyscallReturn(taint.NRRead, []int64{5}, "", 0x7fff0000, 128))

	// Unit B: records two events, then a fault diverts control.
	mustHook(ctx.BeforeUnitExec(unitB))
	ctx.LogDynval(trace.AddressEntry, trace.OpLoad, 0xdeadbeef)
	ctx.LogDynval(trace.BranchEntry, trace.OpBranch, 0x4006e0)
	mustHook(ctx.FaultDiverted(unitB))

	// Unit C: executes twice — same unit, two ledger lines.
	for i := 0; i < 2; i++ {
		mustHook(ctx.BeforeUnitExec(unitC))
		ctx.LogDynval(trace.ValueEntry, trace.OpSelect, uint64(i))
		mustHook(ctx.AfterUnitExec(unitC, nil))
	}

	stats := ctx.Stats()
	if err := ctx.Close(cfg.UnitsDB); err != nil {
		log.Fatalf("Teardown failed: %v", err)
	}

	fmt.Printf("\nCapture finished: %d unit executions, %d flushes (%d defensive), %d faults, %d bytes\n",
		stats.UnitsExecuted, stats.Flushes, stats.DefensiveFlushes, stats.Faults, stats.BytesFlushed)

	// Read the capture back, the way tracedump would.
	events, err := replay.ReadValueLog(cfg.ValueLog)
	if err != nil {
		log.Fatalf("Failed to decode value log: %v", err)
	}
	entries, err := replay.ReadLedger(cfg.Ledger)
	if err != nil {
		log.Fatalf("Failed to read ledger: %v", err)
	}
	s := replay.Summarize(events, entries)
	fmt.Printf("Decoded back: %d events, %d executions, %d faults, %d taint reads\n",
		s.Events, s.UnitExecutions, s.Faults, s.TaintReads)
}

func mustRegister(ctx *trace.Context, name string, pc uint64, length uint32) unit.ExecutionUnit {
	u, err := ctx.Registry().RegisterCompiled(name, pc, length)
	if err != nil {
		log.Fatalf("Failed to register unit: %v", err)
	}
	return u
}

func mustHook(err error) {
	if err != nil {
		log.Fatalf("Lifecycle hook failed: %v", err)
	}
}
