package main

import (
	"fmt"
	"math/rand"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"alma.local/valobs/fuzzer"
	"alma.local/valobs/observers"
)

const maxDemoInputLen = 8

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo harness through the in-process fuzzer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd)
		},
	}

	flags := cmd.Flags()
	flags.Int("iterations", 0, "number of executions (default 10)")
	flags.Int64("seed", 0, "input generator seed (default 1)")
	_ = a.v.BindPFlag("run.iterations", flags.Lookup("iterations"))
	_ = a.v.BindPFlag("run.seed", flags.Lookup("seed"))

	return cmd
}

func (a *app) runDemo(cmd *cobra.Command) error {
	target := newDemoTarget()
	coll, err := target.observers()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	f, err := fuzzer.NewInProcessFuzzer(target.harness, coll,
		fuzzer.WithLogger(a.logger),
		fuzzer.WithMetrics(reg),
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rng := rand.New(rand.NewSource(a.cfg.Run.Seed))

	a.logger.Info("starting demo run", "iterations", a.cfg.Run.Iterations, "seed", a.cfg.Run.Seed)
	for i := 0; i < a.cfg.Run.Iterations; i++ {
		input := make([]byte, rng.Intn(maxDemoInputLen)+1)
		rng.Read(input)

		sig, err := f.Execute(input)
		if err != nil {
			return fmt.Errorf("execution %d: %w", i+1, err)
		}
		fmt.Fprintf(out, "%3d  %-5s  input=%x  high_bytes=%d  path=%016x  fingerprint=%016x\n",
			i+1, sig.Exit, input, target.highBytes, sig.ObserverHashes["path"], sig.Fingerprint())
	}

	trace, err := observers.Lookup[*observers.RefCellValueObserver[[]string]](coll, "path")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "executions=%d  high_bytes=%d  last_path=%v\n",
		f.Executions(), target.highBytes, trace.Take())
	return nil
}
