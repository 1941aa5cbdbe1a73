package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diary/internal/diary"
)

// PutCmd returns the put command.
func PutCmd(a *app) *Command {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	title := fs.StringP("title", "t", "", "Entry title (required)")
	body := fs.StringP("body", "b", "", "Entry body; read from stdin when omitted")

	return &Command{
		Flags: fs,
		Usage: "put <date> -t <title> [flags]",
		Short: "Create or replace an entry",
		Long: "Create the entry for a date, or replace its title and body.\n" +
			"An existing entry keeps its creation time.\n\n" +
			"<date> is YYYYMMDD, YYYY-MM-DD or \"today\".",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execPut(ctx, o, a, args, *title, *body, fs.Changed("body"))
		},
	}
}

func execPut(ctx context.Context, o *IO, a *app, args []string, title, body string, hasBody bool) error {
	if len(args) == 0 {
		return diary.ErrKeyRequired
	}

	key, err := diary.ParseKeyArg(args[0], a.now())
	if err != nil {
		return err
	}

	if !hasBody && o.In() != nil && !isTerminal(o.In()) {
		data, readErr := io.ReadAll(o.In())
		if readErr != nil {
			return fmt.Errorf("read body from stdin: %w", readErr)
		}

		body = string(data)
	}

	clampedTitle := diary.ClampTitle(title)
	if clampedTitle == "" {
		return diary.ErrTitleRequired
	}

	if clampedTitle != strings.TrimSpace(strings.ReplaceAll(title, "\r\n", "\n")) {
		o.Warn("title truncated to %d characters", diary.MaxTitleLen)
	}

	clampedBody := diary.ClampBody(body)
	if clampedBody != strings.ReplaceAll(body, "\r\n", "\n") {
		o.Warn("body truncated to %d characters", diary.MaxBodyLen)
	}

	store, err := a.openStore(ctx, a.cliLogger(o), nil)
	if err != nil {
		return err
	}

	entry, err := store.Upsert(ctx, key, clampedTitle, clampedBody)
	if err != nil {
		return err
	}

	o.Println("saved", entry.Key)

	return nil
}
