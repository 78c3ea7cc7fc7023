package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/nickng/perforator/interp"
	"github.com/nickng/perforator/loop"
	"github.com/nickng/perforator/perforate"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const benchLong = `Interpret a function before and after loop perforation and compare the
results and the number of instructions executed.

Only functions on integer, float and bool values without calls or memory
accesses can be interpreted.`

// benchRun is one interpreted call.
type benchRun struct {
	Results []any `yaml:"results"`
	Steps   int   `yaml:"steps"`
	Blocks  int   `yaml:"blocks"`
}

type benchResult struct {
	Function   string   `yaml:"function"`
	Args       []int    `yaml:"args"`
	Sites      int      `yaml:"sites"`
	Original   benchRun `yaml:"original"`
	Perforated benchRun `yaml:"perforated"`
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		fnName string
		args   []int
	)
	cmd := &cobra.Command{
		Use:   "bench file.go [files.go...] --func main.sum --arg N",
		Short: "Compare a function before and after perforation",
		Long:  benchLong,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			a.cfg.Funcs = []string{fnName}
			fns, err := a.lower(files)
			if err != nil {
				return err
			}
			if len(fns) != 1 {
				return errors.Errorf("%s matches %d functions", fnName, len(fns))
			}
			fn := fns[0]
			callArgs := make([]any, len(args))
			for i, arg := range args {
				callArgs[i] = arg
			}

			in := interp.New(interp.WithMaxSteps(a.cfg.Bench.MaxSteps), interp.WithLogger(a.logger))
			res := benchResult{Function: fn.Name, Args: args}
			before, stats, err := in.Call(fn, callArgs...)
			if err != nil {
				return err
			}
			res.Original = benchRun{before, stats.Steps, stats.Blocks}

			p := perforate.New(
				perforate.WithSelection(a.cfg.Selection()),
				perforate.WithLogger(a.logger),
				perforate.WithObserver(func(perforate.Site) { res.Sites++ }),
			)
			p.Run(fn, loop.Analyse(fn))
			after, stats, err := in.Call(fn, callArgs...)
			if err != nil {
				return errors.Wrap(err, "perforated")
			}
			res.Perforated = benchRun{after, stats.Steps, stats.Blocks}
			return writeBench(cmd.OutOrStdout(), a.cfg.Format, res)
		},
	}
	cmd.Flags().StringVar(&fnName, "func", "main.main", "function to interpret")
	cmd.Flags().IntSliceVar(&args, "arg", nil, "integer argument (repeat for each parameter)")
	return cmd
}

func writeBench(w io.Writer, format string, res benchResult) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return errors.Wrap(err, "cannot encode bench result")
		}
		return enc.Close()
	case "table":
		writeTable(w, []string{"", "Results", "Steps", "Blocks"}, [][]string{
			{"original", joinAny(res.Original.Results), itoa(res.Original.Steps), itoa(res.Original.Blocks)},
			{"perforated", joinAny(res.Perforated.Results), itoa(res.Perforated.Steps), itoa(res.Perforated.Blocks)},
		})
		return nil
	}
	fmt.Fprintf(w, "%s(%s): %d increments perforated\n", res.Function, strings.Trim(fmt.Sprint(res.Args), "[]"), res.Sites)
	fmt.Fprintf(w, "  original:   %s (%d steps, %d blocks)\n", joinAny(res.Original.Results), res.Original.Steps, res.Original.Blocks)
	fmt.Fprintf(w, "  perforated: %s (%d steps, %d blocks)\n", joinAny(res.Perforated.Results), res.Perforated.Steps, res.Perforated.Blocks)
	if res.Perforated.Steps > 0 {
		fmt.Fprintf(w, "  speedup:    %.2fx\n", float64(res.Original.Steps)/float64(res.Perforated.Steps))
	}
	return nil
}

func joinAny(vs []any) string {
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = fmt.Sprint(v)
	}
	return strings.Join(s, ", ")
}
