// Package cli implements the diary command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/diary/internal/diary"
	"github.com/calvinalkan/diary/internal/logging"
)

// app is what commands share: resolved config, the process-wide gate and
// the outside world.
type app struct {
	cfg   diary.AppConfig
	gate  *diary.Gate
	env   map[string]string
	sigCh <-chan os.Signal
	now   func() time.Time
}

// openStore opens the configured data file. log and metrics may be nil.
func (a *app) openStore(ctx context.Context, log *zap.Logger, metrics *diary.Metrics) (*diary.Store, error) {
	return diary.Open(ctx, diary.Config{
		Path:    a.cfg.DataFileAbs,
		Gate:    a.gate,
		Now:     a.now,
		Logger:  log,
		Metrics: metrics,
	})
}

// cliLogger surfaces store warnings, such as dropped lines, on stderr.
func (a *app) cliLogger(o *IO) *zap.Logger {
	log, err := logging.New("warn", a.cfg.LogFormat, o.errOut)
	if err != nil {
		return zap.NewNop()
	}

	return log
}

func commands(a *app) []*Command {
	return []*Command{
		LsCmd(a),
		ShowCmd(a),
		PutCmd(a),
		RmCmd(a),
		ExportCmd(a),
		ServeCmd(a),
		ShellCmd(a),
		PrintConfigCmd(a),
	}
}

// Run is the main entry point. Returns exit code.
//
// sigCh delivers SIGINT/SIGTERM; only long-running commands (serve) read it.
// It may be nil.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("diary", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(io.Discard)

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use specified config `file`")
	dataFile := globals.String("data-file", "", "Override the data `file`")
	help := globals.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}

	err := globals.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, nil)

		return 1
	}

	input := diary.LoadConfigInput{
		WorkDirOverride: *workDir,
		ConfigPath:      *configPath,
		Env:             env,
	}

	if globals.Changed("data-file") {
		input.DataFileOverride = dataFile
	}

	cfg, err := diary.LoadConfig(input)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	a := &app{
		cfg:   cfg,
		gate:  diary.NewGate(),
		env:   env,
		sigCh: sigCh,
		now:   time.Now,
	}
	cmds := commands(a)

	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(out, globals, cmds)

		return 0
	}

	name := rest[0]

	var cmd *Command

	for _, c := range cmds {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", errUnknownCommand, name))
		printUsage(errOut, globals, cmds)

		return 1
	}

	o := NewIO(in, out, errOut)

	code := cmd.Run(context.Background(), o, rest[1:])
	o.Finish()

	return code
}

var errUnknownCommand = errors.New("unknown command")

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals *flag.FlagSet, cmds []*Command) {
	fprintln(w, "diary - date-keyed journal stored in a single TSV file")
	fprintln(w)
	fprintln(w, "Usage: diary [options] <command> [args]")
	fprintln(w)
	fprintln(w, "Options:")

	var buf strings.Builder
	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(io.Discard)
	_, _ = io.WriteString(w, buf.String())

	if len(cmds) == 0 {
		return
	}

	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range cmds {
		fprintln(w, c.HelpLine())
	}
}
