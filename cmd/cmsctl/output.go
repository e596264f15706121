package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeValue prints v as JSON or YAML. YAML keys follow the JSON field
// names so both formats read the same.
func writeValue(out io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var plain any
		if err := json.Unmarshal(b, &plain); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(plain); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// writeTasks prints one task, or several, in format.
func writeTasks(out io.Writer, format string, tasks ...models.Task) error {
	if format != formatTable {
		if len(tasks) == 1 {
			return writeValue(out, format, tasks[0])
		}
		return writeValue(out, format, tasks)
	}
	return writeTaskTable(out, tasks)
}

func writeTaskTable(out io.Writer, tasks []models.Task) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tLSA\tTSP\tDOT & LEA\tASSIGNEE\tCREATED\tDESCRIPTION")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.LSA, t.TSP, t.DotAndLEA,
			orDash(t.AssignedToID),
			t.CreatedAt.Local().Format("2006-01-02 15:04"),
			truncate(t.ProblemDescription, 48),
		)
	}
	return tw.Flush()
}

func writeOptionsTable(out io.Writer, opts models.TaskOptions) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "LSA\t%s\n", strings.Join(opts.LSA, ", "))
	fmt.Fprintf(tw, "TSP\t%s\n", strings.Join(opts.TSP, ", "))
	fmt.Fprintf(tw, "DOT & LEA\t%s\n", strings.Join(opts.DotAndLEA, ", "))
	fmt.Fprintf(tw, "STATUS\t%s\n", strings.Join(opts.Statuses, ", "))
	return tw.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// truncate shortens s to n runes with a trailing ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
