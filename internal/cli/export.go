package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diary/internal/diary"
)

// snapshot is the export file format.
type snapshot struct {
	ExportedAt string        `json:"exportedAt"`
	Entries    []diary.Entry `json:"entries"`
}

// ExportCmd returns the export command.
func ExportCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("export", flag.ContinueOnError),
		Usage: "export <path>",
		Short: "Write all entries to a JSON file",
		Long: "Write every entry, oldest first, to <path> as JSON.\n" +
			"The file is replaced atomically; a relative path is resolved against the working directory.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errPathRequired
			}

			return execExport(ctx, o, a, args[0])
		},
	}
}

var errPathRequired = errors.New("export path is required")

func execExport(ctx context.Context, o *IO, a *app, path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.EffectiveCwd, path)
	}

	store, err := a.openStore(ctx, a.cliLogger(o), nil)
	if err != nil {
		return err
	}

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}

	diary.SortAscending(entries)

	data, err := json.MarshalIndent(snapshot{
		ExportedAt: diary.FormatTimestamp(a.now()),
		Entries:    entries,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	err = atomic.WriteFile(path, bytes.NewReader(append(data, '\n')))
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	o.Printf("exported %d entries to %s\n", len(entries), path)

	return nil
}
