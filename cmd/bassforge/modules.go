package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/bassforge/dsp/effectchain"
	"github.com/cwbudde/bassforge/dsp/module"
)

func newModulesCmd() *cobra.Command {
	var showParams bool

	cmd := &cobra.Command{
		Use:   "modules [type ...]",
		Short: "List registered module types and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModules(cmd.OutOrStdout(), effectchain.DefaultRegistry(), args, showParams || len(args) > 0)
		},
	}

	cmd.Flags().BoolVarP(&showParams, "params", "p", false, "Show parameter ranges")

	return cmd
}

func listModules(w io.Writer, reg *effectchain.Registry, only []string, showParams bool) error {
	types := reg.Types()
	if len(only) > 0 {
		types = only
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !showParams {
		fmt.Fprintln(tw, "TYPE\tCATEGORY\tPARAMS")
	}

	for _, typ := range types {
		m, err := reg.New(typ)
		if err != nil {
			return err
		}

		if !showParams {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", typ, m.Category(), len(m.Params()))
			continue
		}

		fmt.Fprintf(tw, "%s (%s)\n", typ, m.Category())

		for _, p := range m.Params() {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", p.Name, paramRange(p), formatValue(p, p.Default), p.Unit)
		}
	}

	return tw.Flush()
}

func paramRange(p module.ParamSpec) string {
	if len(p.Choices) > 0 {
		return strings.Join(p.Choices, "|")
	}

	return fmt.Sprintf("[%s, %s]", trimFloat(p.Min), trimFloat(p.Max))
}

func formatValue(p module.ParamSpec, v float64) string {
	if label := p.Label(v); label != "" {
		return label
	}

	return trimFloat(v)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "List built-in presets, or print one as a chain config",
		Long: `Without arguments presets lists the built-in presets. With a name it
prints that preset as JSON, ready to edit and pass to render --config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return printPreset(cmd.OutOrStdout(), args[0])
			}

			return listPresets(cmd.OutOrStdout())
		},
	}
}

func listPresets(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tROUTING\tSLOTS\tDESCRIPTION")

	for _, p := range effectchain.Presets() {
		types := make([]string, 0, len(p.Config.Slots))
		for _, s := range p.Config.Slots {
			types = append(types, s.Type)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Config.Routing, strings.Join(types, ","), p.Description)
	}

	return tw.Flush()
}

func printPreset(w io.Writer, name string) error {
	p, err := effectchain.LookupPreset(name)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(p.Config)
}
