package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pagetrack/internal/bootstrap"
)

const readHelp = "enter: next page  p: previous  <n>: go to page  s: pause/resume  i: stats  q: quit"

func newReadCmd(flags *globalFlags) *cobra.Command {
	var page int
	read := &cobra.Command{
		Use:   "read <document-id>",
		Short: "Read a document line by line in the terminal, recording time per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, bootstrap.Options{LogToFile: true}, func(ctx context.Context, app *bootstrap.App) error {
				return runReader(ctx, app, args[0], page, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	read.Flags().IntVar(&page, "page", 0, "start page (default: last viewed)")
	return read
}

// runReader drives one session from line-oriented input. Every input line
// counts as reader activity.
func runReader(ctx context.Context, app *bootstrap.App, documentID string, start int, in io.Reader, out io.Writer) error {
	opened, err := app.SessionTUI.Open(ctx, documentID, start)
	if err != nil {
		return err
	}
	current := opened.Live.CurrentPage
	total := opened.Live.TotalPages
	show := func(page int) error {
		p, err := app.ReaderTUI.OpenPage(ctx, documentID, page)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "\n── %s  p.%d/%d ──\n%s\n", p.Title, p.Page, p.TotalPages, p.Text)
		return nil
	}
	if err := show(current); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, readHelp)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}
		_ = app.SessionTUI.Activity(ctx)

		target := 0
		switch line {
		case "", "n":
			target = current + 1
		case "p":
			target = current - 1
		case "q":
			flushed, err := app.SessionTUI.Close(ctx)
			if err == nil {
				_, _ = fmt.Fprintf(out, "session %s: %s\n", flushed.Outcome, formatMs(flushed.DurationMs))
			}
			return err
		case "s":
			live, flushed, err := app.SessionTUI.TogglePause(ctx)
			if err != nil {
				_, _ = fmt.Fprintln(out, "pause:", err)
			}
			if flushed != nil {
				_, _ = fmt.Fprintf(out, "paused, saved %s\n", formatMs(flushed.DurationMs))
			} else {
				_, _ = fmt.Fprintf(out, "%s\n", live.State)
			}
			continue
		case "i":
			live, err := app.SessionTUI.Live(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "%s  %s  %d pages  %s/page\n", live.State, formatMs(live.ElapsedMs), live.PagesRead, formatMs(live.AvgTimePerPageMs))
			continue
		default:
			n, err := strconv.Atoi(line)
			if err != nil {
				_, _ = fmt.Fprintln(out, readHelp)
				continue
			}
			target = n
		}
		if target < 1 || target > total {
			_, _ = fmt.Fprintf(out, "no page %d (1-%d)\n", target, total)
			continue
		}
		if err := show(target); err != nil {
			return err
		}
		if _, err := app.SessionTUI.GoToPage(ctx, target); err != nil {
			return err
		}
		current = target
	}
}
