package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diary/internal/diary"
)

var errNegativeLimit = errors.New("--limit must be >= 0")

// LsCmd returns the ls command.
func LsCmd(a *app) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	limit := fs.IntP("limit", "n", 0, "Show at most `N` entries (0 = all)")

	return &Command{
		Flags: fs,
		Usage: "ls [flags]",
		Short: "List entries, newest first",
		Long:  "List every entry as one line: date, then title.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execLs(ctx, o, a, *limit)
		},
	}
}

func execLs(ctx context.Context, o *IO, a *app, limit int) error {
	if limit < 0 {
		return errNegativeLimit
	}

	store, err := a.openStore(ctx, a.cliLogger(o), nil)
	if err != nil {
		return err
	}

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	for _, e := range entries {
		o.Printf("%s  %s\n", diary.DateInputFromKey(e.Key), e.Title)
	}

	return nil
}
