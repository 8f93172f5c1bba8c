package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"cdjexport/internal/export"
)

func formatReport(report *export.Report, colorize bool) string {
	var b strings.Builder

	if len(report.Files) > 0 {
		rows := make([][]string, 0, len(report.Files))
		for _, f := range report.Files {
			rows = append(rows, []string{
				strconv.Itoa(f.Position),
				f.FileName,
				string(f.Status),
				fileDetail(f),
			})
		}
		b.WriteString(renderTable(
			[]string{"#", "File", "Status", "Detail"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			nil,
		))
		b.WriteString("\n")
	}

	title := fmt.Sprintf("Playlist %q", report.Playlist)
	if report.DryRun {
		title += " (dry run)"
	}
	b.WriteString(title + "\n")
	b.WriteString(renderStatusLine("Destination", statusInfo, report.Destination, colorize) + "\n")
	if report.DryRun {
		b.WriteString(renderStatusLine("Would copy", statusInfo,
			fmt.Sprintf("%d (%s)", report.Planned, humanize.IBytes(uint64(report.Bytes))), colorize) + "\n")
	} else {
		b.WriteString(renderStatusLine("Copied", statusOK,
			fmt.Sprintf("%d (%s)", report.Copied, humanize.IBytes(uint64(report.Bytes))), colorize) + "\n")
	}
	b.WriteString(renderStatusLine("Skipped", statusInfo, strconv.Itoa(report.Skipped), colorize) + "\n")

	failedKind := statusOK
	if report.Failed > 0 {
		failedKind = statusError
	}
	b.WriteString(renderStatusLine("Failed", failedKind, strconv.Itoa(report.Failed), colorize) + "\n")
	if report.Interrupted {
		b.WriteString(renderStatusLine("Interrupted", statusWarn, "re-run to finish the remaining tracks", colorize) + "\n")
	}
	b.WriteString(renderStatusLine("Duration", statusInfo, report.Duration.Round(10_000_000).String(), colorize))
	return b.String()
}

func fileDetail(f export.FileResult) string {
	switch f.Status {
	case export.StatusCopied, export.StatusPlanned:
		return humanize.IBytes(uint64(f.Bytes))
	default:
		return f.Reason
	}
}
