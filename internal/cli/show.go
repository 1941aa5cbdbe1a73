package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diary/internal/diary"
	"github.com/calvinalkan/diary/internal/theme"
)

// ShowCmd returns the show command.
func ShowCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show <date>",
		Short: "Show an entry",
		Long: "Display the full entry for a date.\n\n" +
			"<date> is YYYYMMDD, YYYY-MM-DD or \"today\".",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execShow(ctx, o, a, args)
		},
	}
}

func execShow(ctx context.Context, o *IO, a *app, args []string) error {
	if len(args) == 0 {
		return diary.ErrKeyRequired
	}

	key, err := diary.ParseKeyArg(args[0], a.now())
	if err != nil {
		return err
	}

	store, err := a.openStore(ctx, a.cliLogger(o), nil)
	if err != nil {
		return err
	}

	entry, found, err := store.Get(ctx, key)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%w: %s", diary.ErrNotFound, key)
	}

	printEntry(o, entry)

	return nil
}

func printEntry(o *IO, e diary.Entry) {
	th := theme.ForKey(e.Key)

	o.Println("date:    " + diary.DateInputFromKey(e.Key))
	o.Println("title:   " + e.Title)
	o.Println("created: " + e.CreatedAt)
	o.Println("updated: " + e.UpdatedAt)
	o.Printf("theme:   %s on %s\n", th.Text, th.Background)

	if e.Body != "" {
		o.Println()
		o.Println(e.Body)
	}
}
