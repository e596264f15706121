// cmsctl is a command-line client for the cmsdesk task API.
//
// Every invocation signs in with the trust login (--email) and then runs
// one command against the server:
//
//	cmsctl list --status pending --sort createdAt --desc
//	cmsctl create --lsa Delhi --tsp Airtel --dot-lea "DoT Delhi" --description "..."
//	cmsctl update <id> --status resolved --solution "Replaced SIM"
//	cmsctl delete <id>
//	cmsctl options -o yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/taskview"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are accepted by every command.
type globalFlags struct {
	Server  string
	Email   string
	Output  string
	Timeout time.Duration
}

func (g *globalFlags) addTo(fs *pflag.FlagSet) {
	fs.StringVar(&g.Server, "server", envOr("CMSCTL_SERVER", "http://localhost:8080"), "cmsdesk base URL")
	fs.StringVar(&g.Email, "email", os.Getenv("CMSCTL_EMAIL"), "email to sign in as")
	fs.StringVarP(&g.Output, "output", "o", "table", "output format: table, json or yaml")
	fs.DurationVar(&g.Timeout, "timeout", 30*time.Second, "per-request timeout")
}

func (g *globalFlags) validate() error {
	switch g.Output {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", g.Output)
	}
	if strings.TrimSpace(g.Email) == "" {
		return fmt.Errorf("--email (or CMSCTL_EMAIL) is required")
	}
	return nil
}

// connect builds a client with a cookie jar and signs in.
func (g *globalFlags) connect(ctx context.Context) (*taskview.Client, models.User, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, models.User{}, err
	}
	client, err := taskview.NewClient(g.Server, &http.Client{Jar: jar, Timeout: g.Timeout})
	if err != nil {
		return nil, models.User{}, err
	}
	u, err := client.Login(ctx, g.Email)
	if err != nil {
		return nil, models.User{}, fmt.Errorf("sign in as %s: %w", g.Email, err)
	}
	return client, u, nil
}

// command is one cmsctl subcommand.
type command struct {
	name    string
	usage   string
	summary string
	// flags registers command-specific flags and returns the function that
	// runs the command once they are parsed.
	flags func(fs *pflag.FlagSet) runFunc
}

func commands() []command {
	return []command{
		listCommand(),
		getCommand(),
		createCommand(),
		updateCommand(),
		deleteCommand(),
		optionsCommand(),
		whoamiCommand(),
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(out)
		return nil
	}

	for _, cmd := range commands() {
		if cmd.name != args[0] {
			continue
		}
		var g globalFlags
		fs := pflag.NewFlagSet("cmsctl "+cmd.name, pflag.ContinueOnError)
		fs.SetOutput(out)
		fs.Usage = func() {
			fmt.Fprintf(out, "Usage: cmsctl %s\n\n%s\n\nFlags:\n", cmd.usage, cmd.summary)
			fs.PrintDefaults()
		}
		g.addTo(fs)
		runFn := cmd.flags(fs)
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := g.validate(); err != nil {
			return err
		}
		return runFn(ctx, &g, fs.Args(), out)
	}
	return fmt.Errorf("unknown command %q (run \"cmsctl help\")", args[0])
}

func printUsage(out io.Writer) {
	fmt.Fprintf(out, "cmsctl: command-line client for cmsdesk\n\nUsage:\n  cmsctl <command> [flags]\n\nCommands:\n")
	for _, cmd := range commands() {
		fmt.Fprintf(out, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(out, "\nRun \"cmsctl <command> --help\" for command flags.\n")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
