package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Skryldev/stereomerge"
)

func renderReport(report *stereomerge.BatchReport) string {
	var b strings.Builder

	summary := newTable()
	summary.AppendHeader(table.Row{"Attempted", "Succeeded", "Failed", "Skipped", "Warnings"})
	summary.AppendRow(table.Row{report.Attempted, report.Succeeded, report.Failed, report.Skipped, len(report.Warnings)})
	summary.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	b.WriteString(summary.Render())

	if failures := report.Failures(); len(failures) > 0 {
		tw := newTable()
		tw.SetTitle("Failed pairs")
		tw.AppendHeader(table.Row{"Key", "Code", "Reason"})
		for _, f := range failures {
			tw.AppendRow(table.Row{f.Key + f.Extension, stereomerge.ErrorCodeOf(f.Err), f.Err.Error()})
		}
		b.WriteString("\n")
		b.WriteString(tw.Render())
	}

	if len(report.Warnings) > 0 {
		tw := newTable()
		tw.SetTitle("Skipped groups")
		tw.AppendHeader(table.Row{"Key", "Kind", "Reason"})
		for _, w := range report.Warnings {
			tw.AppendRow(table.Row{w.Key + w.Extension, string(w.Kind), w.Message})
		}
		b.WriteString("\n")
		b.WriteString(tw.Render())
	}

	if report.Attempted == 0 && report.Skipped == 0 {
		b.WriteString("\nNo .L/.R pairs found.")
	} else {
		fmt.Fprintf(&b, "\nFinished in %s.", report.Duration.Round(time.Millisecond))
	}
	return b.String()
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}
