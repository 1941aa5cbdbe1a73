package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diary/internal/diary"
)

// RmCmd returns the rm command.
func RmCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <date>",
		Short: "Delete an entry",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execRm(ctx, o, a, args)
		},
	}
}

func execRm(ctx context.Context, o *IO, a *app, args []string) error {
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

	existed, err := store.Delete(ctx, key)
	if err != nil {
		return err
	}

	if !existed {
		return fmt.Errorf("%w: %s", diary.ErrNotFound, key)
	}

	o.Println("deleted", key)

	return nil
}
