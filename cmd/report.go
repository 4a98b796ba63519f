package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/simradio/datarecording"
)

var reportCmd = &cobra.Command{
	Use:   "report RECORDING.sqlite3",
	Short: "Summarize a recording.",
	Long: "`report` reads a recording made with --record and prints the " +
		"frame counts per direction and the request latencies per kind.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		return writeReport(cmd.Context(), reader, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

type requestSummary struct {
	count    int
	failures int
	totalSec float64
	maxSec   float64
}

func writeReport(
	ctx context.Context,
	reader datarecording.DataReader,
	out io.Writer,
) error {
	reader.MapTable(datarecording.FrameTable, datarecording.FrameEntry{})
	reader.MapTable(datarecording.RequestTable, datarecording.RequestEntry{})

	frames, _, err := reader.Query(ctx, datarecording.FrameTable,
		datarecording.QueryParams{})
	if err != nil {
		return fmt.Errorf("read frames: %w", err)
	}

	requests, _, err := reader.Query(ctx, datarecording.RequestTable,
		datarecording.QueryParams{OrderBy: "StartTime"})
	if err != nil {
		return fmt.Errorf("read requests: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "DIRECTION\tFRAMES\tBYTES")
	for _, line := range summarizeFrames(frames) {
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "REQUEST\tCOUNT\tFAILED\tAVG(ms)\tMAX(ms)")
	for _, line := range summarizeRequests(requests) {
		fmt.Fprintln(w, line)
	}

	return w.Flush()
}

func summarizeFrames(rows []any) []string {
	counts := make(map[string]int)
	bytes := make(map[string]int)

	for _, row := range rows {
		f := row.(*datarecording.FrameEntry)
		counts[f.Direction]++
		bytes[f.Direction] += f.Size
	}

	lines := make([]string, 0, len(counts))
	for _, dir := range sortedKeys(counts) {
		lines = append(lines, fmt.Sprintf("%s\t%d\t%d",
			dir, counts[dir], bytes[dir]))
	}

	return lines
}

func summarizeRequests(rows []any) []string {
	byKind := make(map[string]*requestSummary)

	for _, row := range rows {
		r := row.(*datarecording.RequestEntry)

		s, ok := byKind[r.Kind]
		if !ok {
			s = &requestSummary{}
			byKind[r.Kind] = s
		}

		if r.Outcome != "ok" {
			s.failures++
			continue
		}

		latency := r.EndTime - r.StartTime
		s.count++
		s.totalSec += latency
		s.maxSec = max(s.maxSec, latency)
	}

	lines := make([]string, 0, len(byKind))
	for _, kind := range sortedKeys(byKind) {
		s := byKind[kind]

		avg := 0.0
		if s.count > 0 {
			avg = s.totalSec / float64(s.count)
		}

		lines = append(lines, fmt.Sprintf("%s\t%d\t%d\t%.3f\t%.3f",
			kind, s.count+s.failures, s.failures, avg*1000, s.maxSec*1000))
	}

	return lines
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
