package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// prompter reads one line of input per call. *liner.State satisfies it.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// lineReader is the prompter used when stdin is not a terminal. It prints
// no prompts and keeps no history.
type lineReader struct {
	sc *bufio.Scanner
}

func (r *lineReader) Prompt(string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return r.sc.Text(), nil
}

func (r *lineReader) AppendHistory(string) {}

func (r *lineReader) Close() error { return nil }

var shellCommands = []string{"ls", "show", "put", "rm", "help", "exit", "quit"}

// ShellCmd returns the shell command.
func ShellCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Interactive prompt",
		Long: "Start an interactive prompt. Type 'help' for commands.\n" +
			"Reads commands line by line when stdin is not a terminal.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execShell(ctx, o, a)
		},
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

func (a *app) historyFile() string {
	home := a.env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, ".diary_history")
}

func execShell(ctx context.Context, o *IO, a *app) error {
	var p prompter

	interactive := isTerminal(o.In()) && liner.TerminalSupported()
	if interactive {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)
		state.SetCompleter(func(line string) []string {
			var out []string

			for _, c := range shellCommands {
				if strings.HasPrefix(c, strings.ToLower(line)) {
					out = append(out, c)
				}
			}

			return out
		})

		if f, err := os.Open(a.historyFile()); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}

		defer func() {
			if f, err := os.Create(a.historyFile()); err == nil {
				_, _ = state.WriteHistory(f)
				_ = f.Close()
			}
		}()

		p = state
		o.Println("diary shell, data file", a.cfg.DataFileAbs)
		o.Println("Type 'help' for available commands.")
	} else {
		if o.In() == nil {
			return nil
		}

		p = &lineReader{sc: bufio.NewScanner(o.In())}
	}

	defer func() { _ = p.Close() }()

	for {
		line, err := p.Prompt("diary> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		p.AppendHistory(line)

		fields := strings.Fields(line)
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			printShellHelp(o)

			continue
		}

		cmdErr := runShellCommand(ctx, o, a, p, cmd, args)
		if cmdErr != nil {
			o.Println("error:", cmdErr)
		}

		o.FlushWarnings()
	}
}

func runShellCommand(ctx context.Context, o *IO, a *app, p prompter, cmd string, args []string) error {
	switch cmd {
	case "ls", "list":
		return execLs(ctx, o, a, 0)
	case "show", "get":
		return execShow(ctx, o, a, args)
	case "rm", "del", "delete":
		return execRm(ctx, o, a, args)
	case "put":
		if len(args) < 2 {
			return errShellPutUsage
		}

		body, err := readBody(p)
		if err != nil {
			return err
		}

		return execPut(ctx, o, a, args[:1], strings.Join(args[1:], " "), body, true)
	default:
		return errors.New("unknown command: " + cmd + " (type 'help' for commands)")
	}
}

var errShellPutUsage = errors.New("usage: put <date> <title...>, then body lines ending with a single '.'")

// readBody collects lines until one consisting of a single ".".
func readBody(p prompter) (string, error) {
	var lines []string

	for {
		line, err := p.Prompt("... ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return "", err
		}

		if line == "." {
			break
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n"), nil
}

func printShellHelp(o *IO) {
	o.Println("Commands:")
	o.Println("  ls                       List entries, newest first")
	o.Println("  show <date>              Show an entry")
	o.Println("  put <date> <title...>    Create or replace an entry; body follows, end with '.'")
	o.Println("  rm <date>                Delete an entry")
	o.Println("  help                     Show this help")
	o.Println("  exit | quit | q          Leave the shell")
	o.Println()
	o.Println("<date> is YYYYMMDD, YYYY-MM-DD or \"today\".")
}
