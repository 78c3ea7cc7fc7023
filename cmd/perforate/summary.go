package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nickng/perforator/perforate"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// writeSites writes the perforated sites to w in format.
func writeSites(w io.Writer, format string, sites []perforate.Site, changed int) error {
	switch format {
	case "table":
		rows := make([][]string, len(sites))
		for i, s := range sites {
			rows[i] = []string{s.Function, s.Loop, s.Block, s.Instr, fmt.Sprintf("%d → %d", s.Before, s.After)}
		}
		writeTable(w, []string{"Function", "Loop", "Block", "Instr", "Step"}, rows)
		return nil

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(struct {
			Changed int              `yaml:"changed"`
			Sites   []perforate.Site `yaml:"sites"`
		}{changed, sites}); err != nil {
			return errors.Wrap(err, "cannot encode summary")
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "Perforated %d increments in %d functions.\n", len(sites), changed)
	for _, s := range sites {
		fmt.Fprintf(w, "  %s: %s in %s (loop %s): step %d → %d\n", s.Function, s.Instr, s.Block, s.Loop, s.Before, s.After)
	}
	return nil
}

func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

func itoa(i int) string { return strconv.Itoa(i) }
