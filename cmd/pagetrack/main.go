package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pagetrack/internal/bootstrap"
	"pagetrack/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	dataDir    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "pagetrack",
		Short:         "Track time spent reading documents, page by page",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (yaml)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default $XDG_DATA_HOME/pagetrack)")

	root.AddCommand(
		newTUICmd(flags),
		newReadCmd(flags),
		newLibraryCmd(flags),
		newPageCmd(flags),
		newDashboardCmd(flags),
		newSessionsCmd(flags),
		newStatsCmd(flags),
		newSinkCmd(flags),
	)
	return root
}

// withApp builds the app, runs fn and always shuts the app down, flushing
// any open session.
func withApp(cmd *cobra.Command, flags *globalFlags, opts bootstrap.Options, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, errs := config.Load(flags.configPath, flags.dataDir)
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	runErr := fn(ctx, app)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	return errors.Join(runErr, app.Close(closeCtx))
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal reader",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, bootstrap.Options{LogToFile: true}, func(_ context.Context, app *bootstrap.App) error {
				return bootstrap.RunTUI(app)
			})
		},
	}
}

func newLibraryCmd(flags *globalFlags) *cobra.Command {
	library := &cobra.Command{Use: "library", Short: "Manage the document catalog"}

	var title string
	add := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a PDF, markdown or text document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				doc, err := app.LibraryCLI.Add(ctx, args[0], title)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s, %d pages) id=%s\n", doc.Title, doc.Kind, doc.PageCount, doc.ID)
				if doc.NotePath != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "note: %s\n", doc.NotePath)
				}
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "document title (default: file name)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				docs, err := app.LibraryCLI.List(ctx)
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no documents")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tKIND\tPAGES\tTITLE")
				for _, d := range docs {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.ID, d.Kind, d.PageCount, d.Title)
				}
				return w.Flush()
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <document-id>",
		Short: "Show one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				d, err := app.LibraryCLI.Get(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id: %s\ntitle: %s\nkind: %s\npages: %d\npath: %s\nadded: %s\n",
					d.ID, d.Title, d.Kind, d.PageCount, d.Path, d.AddedAt.Local().Format(time.RFC3339))
				return nil
			})
		},
	}

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Recount pages of every document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.LibraryCLI.Refresh(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "checked %d, updated %d\n", out.Checked, out.Updated)
				for _, id := range out.Failed {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "failed: %s\n", id)
				}
				return nil
			})
		},
	}

	library.AddCommand(add, list, show, refresh)
	return library
}

func newPageCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "page <document-id> <page>",
		Short: "Print one page without recording reading time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := parsePage(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ReaderCLI.Page(ctx, args[0], page)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  p.%d/%d\n\n%s\n", out.Title, out.Page, out.TotalPages, out.Text)
				return nil
			})
		},
	}
}

func newDashboardCmd(flags *globalFlags) *cobra.Command {
	recent := 0
	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Show lifetime totals, streaks and this week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				n := recent
				if !cmd.Flags().Changed("recent") {
					n = app.Config.RecentSessions
				}
				out, err := app.AnalyticsCLI.Dashboard(ctx, n)
				if err != nil {
					return err
				}
				titles := map[string]string{}
				if docs, err := app.LibraryCLI.List(ctx); err == nil {
					for _, d := range docs {
						titles[d.ID] = d.Title
					}
				}
				printDashboard(cmd.OutOrStdout(), out, titles)
				return nil
			})
		},
	}
	dashboard.Flags().IntVar(&recent, "recent", 0, "number of recent sessions to list")
	return dashboard
}

func newSessionsCmd(flags *globalFlags) *cobra.Command {
	var documentID string
	sessions := &cobra.Command{
		Use:   "sessions --document <id>",
		Short: "List recorded session chunks of a document, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(documentID) == "" {
				return fmt.Errorf("--document is required")
			}
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				list, err := app.AnalyticsCLI.Sessions(ctx, documentID)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tPAGES")
				for _, s := range list {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.StartedAt.Local().Format("2006-01-02 15:04"), formatMs(s.TotalDurationMs), s.PagesRead)
				}
				return w.Flush()
			})
		},
	}
	sessions.Flags().StringVar(&documentID, "document", "", "document id")
	return sessions
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <document-id>",
		Short: "Show reading statistics of one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				s, err := app.AnalyticsCLI.DocumentStats(ctx, args[0])
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

func newSinkCmd(flags *globalFlags) *cobra.Command {
	sink := &cobra.Command{Use: "sink", Short: "Inspect session sink plugins"}

	sink.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured sinks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				sinks, err := app.SinkCLI.List(ctx)
				if err != nil {
					return err
				}
				if len(sinks) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sinks")
					return nil
				}
				for _, s := range sinks {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tenabled=%t\t%s\n", s.Name, s.Version, s.Enabled, s.Binary)
				}
				return nil
			})
		},
	})

	sink.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check sink binaries, checksums and handshake",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, bootstrap.Options{}, func(ctx context.Context, app *bootstrap.App) error {
				results, err := app.SinkCLI.Doctor(ctx)
				if err != nil {
					return err
				}
				unhealthy := 0
				for _, r := range results {
					status := "ok"
					if r.Error != "" {
						status = r.Error
						unhealthy++
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tchecksum=%t\treachable=%t\tlifecycle=%t\t%s\n",
						r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK, status)
				}
				if unhealthy > 0 {
					return fmt.Errorf("%d sink(s) unhealthy", unhealthy)
				}
				return nil
			})
		},
	})
	return sink
}
