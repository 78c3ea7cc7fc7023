package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/fatih/color"
	"github.com/nickng/perforator/ir"
	"github.com/nickng/perforator/pass"
	"github.com/nickng/perforator/perforate"
	"github.com/spf13/cobra"
)

const runLong = `Lower the given files and run a pass pipeline on each function.

The default pipeline is loop-perforation-pass. Use --passes to run other
passes, e.g. --passes loop-count-pass,loop-perforation-pass,loop-count-pass
to report the loop nest before and after perforation.`

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [flags] file.go [files.go...]",
		Short: "Run a pass pipeline",
		Long:  runLong,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), args, a.cfg.Passes, true)
		},
	}
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count file.go [files.go...]",
		Short: "Report the loops of each function",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), args, pass.LoopCount, false)
		},
	}
}

func newPassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passes",
		Short: "List the registered passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range pass.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// siteCollector collects perforated sites from concurrent passes.
type siteCollector struct {
	mu    sync.Mutex
	sites []perforate.Site
}

func (c *siteCollector) observe(s perforate.Site) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sites = append(c.sites, s)
}

// sorted returns the sites ordered by function, then block.
func (c *siteCollector) sorted(fns []*ir.Function) []perforate.Site {
	c.mu.Lock()
	defer c.mu.Unlock()
	order := make(map[string]int, len(fns))
	for i, fn := range fns {
		order[fn.Name] = i
	}
	sites := append([]perforate.Site(nil), c.sites...)
	sort.SliceStable(sites, func(i, j int) bool {
		if sites[i].Function != sites[j].Function {
			return order[sites[i].Function] < order[sites[j].Function]
		}
		return sites[i].Add.Block().Index < sites[j].Add.Block().Index
	})
	return sites
}

func (a *app) run(ctx context.Context, out io.Writer, files []string, pipeline string, summary bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fns, err := a.lower(files)
	if err != nil {
		return err
	}

	collector := &siteCollector{}
	passes, err := pass.ParsePipeline(pipeline, pass.Env{
		Logger:    a.logger,
		Selection: a.cfg.Selection(),
		Observe:   collector.observe,
	})
	if err != nil {
		return err
	}
	results, err := pass.NewPipeline(passes,
		pass.WithJobs(a.cfg.Jobs),
		pass.WithPipelineLogger(a.logger),
	).Run(ctx, fns, out)
	if err != nil {
		return err
	}

	sites := collector.sorted(fns)
	if a.cfg.PrintIR {
		printIR(out, fns, sites)
	}
	if !summary {
		return nil
	}
	changed := 0
	for _, r := range results {
		if r.Changed {
			changed++
		}
	}
	return writeSites(out, a.cfg.Format, sites, changed)
}

var perforated = color.New(color.FgRed, color.Bold)

// printIR prints fns, highlighting the perforated instructions.
func printIR(w io.Writer, fns []*ir.Function, sites []perforate.Site) {
	marked := make(map[ir.Instruction]bool, len(sites))
	for _, s := range sites {
		marked[s.Add] = true
	}
	for _, fn := range fns {
		ir.Fprint(w, fn, func(instr ir.Instruction, line string) string {
			if marked[instr] {
				return perforated.Sprint(line) + " # perforated"
			}
			return line
		})
	}
}
