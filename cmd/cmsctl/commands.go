package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/taskview"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/spf13/pflag"
)

// runFunc runs a command once its flags are parsed.
type runFunc func(ctx context.Context, g *globalFlags, args []string, out io.Writer) error

func listCommand() command {
	return command{
		name:    "list",
		usage:   "list [flags]",
		summary: "List tasks, filtered, sorted and paged",
		flags: func(fs *pflag.FlagSet) runFunc {
			var (
				status, search, from, to, sortBy string
				desc                             bool
				page, pageSize                   int
			)
			fs.StringVar(&status, "status", "", "only tasks with this status")
			fs.StringVar(&search, "search", "", "substring of description, solution or remarks")
			fs.StringVar(&from, "from", "", "created on or after (YYYY-MM-DD or RFC3339)")
			fs.StringVar(&to, "to", "", "created on or before (YYYY-MM-DD or RFC3339)")
			fs.StringVar(&sortBy, "sort", "", "sort column (lsa, tsp, dotAndLea, status, createdAt, ...)")
			fs.BoolVar(&desc, "desc", false, "sort descending")
			fs.IntVar(&page, "page", 1, "page number")
			fs.IntVar(&pageSize, "page-size", 0, "rows per page (0 for the default)")

			return func(ctx context.Context, g *globalFlags, args []string, out io.Writer) error {
				if len(args) > 0 {
					return fmt.Errorf("unexpected argument: %s", args[0])
				}
				f := models.TaskFilter{Status: status, Search: search}
				var err error
				if f.From, err = parseDate(from, false); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				if f.To, err = parseDate(to, true); err != nil {
					return fmt.Errorf("--to: %w", err)
				}

				client, _, err := g.connect(ctx)
				if err != nil {
					return err
				}
				view := taskview.NewCache(client).View(f)
				rows, err := view.Rows(ctx)
				if err != nil {
					return err
				}

				var sorter taskview.Sorter
				if sortBy != "" {
					sorter.Toggle(taskview.Column(sortBy))
					if desc {
						sorter.Toggle(taskview.Column(sortBy))
					}
				}
				pager := taskview.NewPager(pageSize)
				pager.Goto(page)
				pageRows, w := pager.Window(sorter.Apply(rows))

				if g.Output != formatTable {
					return writeValue(out, g.Output, pageRows)
				}
				if err := writeTaskTable(out, pageRows); err != nil {
					return err
				}
				fmt.Fprintf(out, "\npage %d of %d (%d tasks, revision %d)\n", w.Page, w.PageCount, len(rows), view.Revision())
				return nil
			}
		},
	}
}

func getCommand() command {
	return command{
		name:    "get",
		usage:   "get <id>",
		summary: "Show one task",
		flags: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, g *globalFlags, args []string, out io.Writer) error {
				id, err := oneID(args)
				if err != nil {
					return err
				}
				client, _, err := g.connect(ctx)
				if err != nil {
					return err
				}
				t, err := client.Get(ctx, id)
				if err != nil {
					return err
				}
				return writeTasks(out, g.Output, t)
			}
		},
	}
}

func createCommand() command {
	return command{
		name:    "create",
		usage:   "create --lsa X --tsp Y --dot-lea Z --description TEXT [--status S]",
		summary: "Log a new task",
		flags: func(fs *pflag.FlagSet) runFunc {
			var d models.TaskDraft
			fs.StringVar(&d.LSA, "lsa", "", "licensed service area")
			fs.StringVar(&d.TSP, "tsp", "", "telecom service provider")
			fs.StringVar(&d.DotAndLEA, "dot-lea", "", "requesting DoT unit or law enforcement agency")
			fs.StringVar(&d.ProblemDescription, "description", "", "problem description")
			fs.StringVar(&d.Status, "status", "", "initial status (server default when blank)")

			return func(ctx context.Context, g *globalFlags, args []string, out io.Writer) error {
				if len(args) > 0 {
					return fmt.Errorf("unexpected argument: %s", args[0])
				}
				client, _, err := g.connect(ctx)
				if err != nil {
					return err
				}
				t, err := taskview.NewCache(client).View(models.TaskFilter{}).Create(ctx, d)
				if err != nil {
					return err
				}
				return writeTasks(out, g.Output, t)
			}
		},
	}
}

func updateCommand() command {
	return command{
		name:    "update",
		usage:   "update <id> [--status S] [--solution TEXT] [--remarks TEXT] [--assign USER_ID]",
		summary: "Change a task (administrators only)",
		flags: func(fs *pflag.FlagSet) runFunc {
			var status, solution, remarks, assign string
			fs.StringVar(&status, "status", "", "new status")
			fs.StringVar(&solution, "solution", "", "solution provided")
			fs.StringVar(&remarks, "remarks", "", "remarks")
			fs.StringVar(&assign, "assign", "", "assignee user ID (empty clears)")

			return func(ctx context.Context, g *globalFlags, args []string, out io.Writer) error {
				id, err := oneID(args)
				if err != nil {
					return err
				}
				var p models.TaskPatch
				if fs.Changed("status") {
					p.Status = &status
				}
				if fs.Changed("solution") {
					p.SolutionProvided = &solution
				}
				if fs.Changed("remarks") {
					p.Remarks = &remarks
				}
				if fs.Changed("assign") {
					p.AssignedToID = &assign
				}
				if p.IsEmpty() {
					return fmt.Errorf("nothing to update: pass at least one of --status, --solution, --remarks, --assign")
				}

				client, _, err := g.connect(ctx)
				if err != nil {
					return err
				}
				t, _, err := client.Update(ctx, id, p)
				if err != nil {
					return err
				}
				return writeTasks(out, g.Output, t)
			}
		},
	}
}

func deleteCommand() command {
	return command{
		name:    "delete",
		usage:   "delete <id>",
		summary: "Delete a task (administrators only)",
		flags: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, g *globalFlags, args []string, out io.Writer) error {
				id, err := oneID(args)
				if err != nil {
					return err
				}
				client, _, err := g.connect(ctx)
				if err != nil {
					return err
				}
				if _, err := client.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted %s\n", id)
				return nil
			}
		},
	}
}

func optionsCommand() command {
	return command{
		name:    "options",
		usage:   "options",
		summary: "Show the suggested LSA, TSP, DoT & LEA and status values",
		flags: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, g *globalFlags, args []string, out io.Writer) error {
				client, _, err := g.connect(ctx)
				if err != nil {
					return err
				}
				opts, err := client.Options(ctx)
				if err != nil {
					return err
				}
				if g.Output != formatTable {
					return writeValue(out, g.Output, opts)
				}
				return writeOptionsTable(out, opts)
			}
		},
	}
}

func whoamiCommand() command {
	return command{
		name:    "whoami",
		usage:   "whoami",
		summary: "Sign in and show the account",
		flags: func(fs *pflag.FlagSet) runFunc {
			return func(ctx context.Context, g *globalFlags, args []string, out io.Writer) error {
				_, u, err := g.connect(ctx)
				if err != nil {
					return err
				}
				if g.Output != formatTable {
					return writeValue(out, g.Output, u)
				}
				fmt.Fprintf(out, "%s <%s> (%s) id=%s\n", u.Name, u.Email, u.Role, u.ID)
				return nil
			}
		},
	}
}

func oneID(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("expected exactly one task id")
	}
	return args[0], nil
}

// parseDate accepts YYYY-MM-DD or RFC3339. A date-only upper bound covers
// the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	return &t, nil
}
