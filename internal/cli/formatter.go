package cli

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/refer/internal/dirstat"
	"github.com/idelchi/refer/internal/settings"
	"github.com/idelchi/refer/internal/snapshot"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, TabSpacing, ' ', 0)
}

// PrintJSON outputs v as indented JSON.
func PrintJSON(v any, writer io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintSettings outputs settings as a two-column table.
func PrintSettings(s settings.Settings, writer io.Writer) error {
	w := newTabWriter(writer)

	fmt.Fprintf(w, "Theme:\t%s\n", s.Theme)
	fmt.Fprintf(w, "Language:\t%s\n", s.Language)

	return w.Flush()
}

// PrintSnapshot outputs library statistics in human-readable form.
//
//nolint:forbidigo // This function prints output to the console.
func PrintSnapshot(snap snapshot.Snapshot, writer io.Writer) error {
	w := newTabWriter(writer)

	fmt.Fprintf(w, "Path:\t%s\n", snap.Path)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n", humanize.IBytes(snap.TotalSizeBytes), snap.TotalSizeBytes)
	fmt.Fprintf(w, "Libraries (*.%s):\t%d\n", snap.Extension, snap.Count)

	for i, entry := range snap.MatchedEntries {
		fmt.Fprintf(w, "  %d) %s\t\n", i+1, entry)
	}

	if len(snap.Failures) > 0 {
		fmt.Fprintln(w, "\nSkipped:\t")

		for _, f := range snap.Failures {
			fmt.Fprintf(w, "  %s\t%s (%s)\n", f.Path, f.Code, f.Op)
		}
	}

	if snap.LogDir != "" {
		fmt.Fprintf(w, "\nLog directory:\t%s\n", snap.LogDir)
	}

	return w.Flush()
}

// PrintTable outputs a report breakdown in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(stats *dirstat.Stats, writer io.Writer) error {
	w := newTabWriter(writer)

	fmt.Fprintln(w, "\nTop extensions:\t\t")

	extList := make([]string, 0, len(stats.ExtStats))
	for ext := range stats.ExtStats {
		extList = append(extList, ext)
	}

	slices.SortFunc(extList, func(a, b string) int {
		if n := cmp.Compare(stats.ExtStats[a].Size, stats.ExtStats[b].Size); n != 0 {
			return n
		}

		return cmp.Compare(b, a)
	})

	if len(extList) > stats.TopN {
		extList = extList[len(extList)-stats.TopN:]
	}

	for i, ext := range extList {
		extStat := stats.ExtStats[ext]
		if ext == "" {
			ext = `""`
		}

		fmt.Fprintf(w, "  %d) %s:\t%d files, %s (%.1f%%)\n",
			len(extList)-i, ext, extStat.Count, humanize.IBytes(uint64(extStat.Size)), //nolint:gosec // Sizes are never negative
			percent(extStat.Size, stats.TotalBytes))
	}

	fmt.Fprintln(w, "\nTop files:\t\t")

	for i, f := range stats.TopFiles {
		fmt.Fprintf(w, "  %d) '%s'\t%s (%.1f%%)\n",
			len(stats.TopFiles)-i, f.Path, humanize.IBytes(uint64(f.Size)), //nolint:gosec // Sizes are never negative
			percent(f.Size, stats.TotalBytes))
	}

	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Total files:\t%d\n", stats.FileCount)
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n",
		humanize.IBytes(uint64(stats.TotalBytes)), stats.TotalBytes) //nolint:gosec // Sizes are never negative

	if stats.ErrorCount > 0 {
		fmt.Fprintf(w, "Unreadable:\t%d\n", stats.ErrorCount)
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", stats.Elapsed)

	return w.Flush()
}

func percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}

	return 100.0 * float64(part) / float64(total)
}
