package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/diary/internal/cli"
)

func Test_Put_Show_Ls_Rm_Roundtrip(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	if got := c.MustRun("ls"); got != "" {
		t.Fatalf("ls on empty diary=%q, want empty", got)
	}

	cli.AssertContains(t, c.MustRun("put", "20240102", "-t", "Second", "-b", "day two"), "saved 20240102")
	cli.AssertContains(t, c.MustRun("put", "2024-01-01", "-t", "First", "-b", "line1\nline2"), "saved 20240101")

	ls := c.MustRun("ls")
	if got, want := ls, "2024-01-02  Second\n2024-01-01  First"; got != want {
		t.Errorf("ls=%q, want=%q", got, want)
	}

	show := c.MustRun("show", "20240101")
	cli.AssertContains(t, show, "title:   First")
	cli.AssertContains(t, show, "line1\nline2")
	cli.AssertContains(t, show, "theme:   #")

	data := c.ReadDataFile()
	if !strings.HasPrefix(data, "20240101\tFirst\tline1\\nline2\t") {
		t.Errorf("data file not in ascending order or not escaped:\n%s", data)
	}

	cli.AssertContains(t, c.MustRun("rm", "20240101"), "deleted 20240101")

	stderr := c.MustFail("show", "20240101")
	cli.AssertContains(t, stderr, "entry not found")

	stderr = c.MustFail("rm", "20240101")
	cli.AssertContains(t, stderr, "entry not found")
}

func Test_Put_Reads_Body_From_Stdin_When_No_Body_Flag(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, stderr, code := c.RunWithInput("from stdin\r\nsecond line", "put", "20240301", "-t", "Piped")
	if code != 0 {
		t.Fatalf("put failed: %s", stderr)
	}

	show := c.MustRun("show", "20240301")
	cli.AssertContains(t, show, "from stdin\nsecond line")
}

func Test_Put_Fails_When_Input_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"MissingDate", []string{"put", "-t", "x"}, "date key is required"},
		{"BadDate", []string{"put", "20241332", "-t", "x"}, "invalid date key"},
		{"BlankTitle", []string{"put", "20240101", "-t", "   ", "-b", ""}, "title is required"},
		{"UnknownFlag", []string{"put", "20240101", "--nope"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)
			stderr := c.MustFail(tt.args...)
			cli.AssertContains(t, stderr, tt.wantErr)

			if _, err := os.Stat(c.DataFile()); err == nil {
				t.Error("failed put created the data file")
			}
		})
	}
}

func Test_Put_Warns_When_Title_Truncated(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout, stderr, code := c.Run("put", "20240101", "-t", strings.Repeat("t", 150), "-b", "")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stdout, "saved 20240101")
	cli.AssertContains(t, stderr, "warning: title truncated to 100 characters")
}

func Test_Ls_Warns_When_Data_File_Has_Malformed_Lines(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteDataFile("20240101\tKept\tbody\tc\tu\nonly\ttwo\n")

	stdout, stderr, code := c.Run("ls")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stdout, "2024-01-01  Kept")
	cli.AssertContains(t, stderr, "dropped malformed lines")
}

func Test_Shell_Prints_Each_Warning_Once_When_Several_Puts_Truncate(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	long := strings.Repeat("t", 150)

	script := strings.Join([]string{
		"put 20240101 " + long,
		".",
		"put 20240102 " + long,
		".",
		"exit",
	}, "\n")

	stdout, stderr, code := c.RunWithInput(script, "shell")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stdout, "saved 20240102")

	if got := strings.Count(stderr, "warning: title truncated"); got != 2 {
		t.Errorf("truncation warning printed %d times, want 2\n%s", got, stderr)
	}
}

func Test_Ls_Shows_Raw_Key_When_Stored_Key_Malformed(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteDataFile("2024\tT\tB\tc\tu\n20240101\tOk\tB\tc\tu\n")

	stdout, stderr, code := c.Run("ls")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}

	if got, want := strings.TrimSpace(stdout), "2024-01-01  Ok\n2024  T"; got != want {
		t.Errorf("ls=%q, want=%q", got, want)
	}

	stdout, stderr, code = c.RunWithInput("ls\nexit\n", "shell")
	if code != 0 {
		t.Fatalf("shell exit=%d stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stdout, "2024  T")
}

func Test_Ls_Limit_When_Flag_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	for _, key := range []string{"20240101", "20240102", "20240103"} {
		c.MustRun("put", key, "-t", "t"+key, "-b", "")
	}

	if got, want := c.MustRun("ls", "-n", "1"), "2024-01-03  t20240103"; got != want {
		t.Errorf("ls -n 1=%q, want=%q", got, want)
	}

	cli.AssertContains(t, c.MustFail("ls", "--limit=-1"), "--limit must be >= 0")
}

func Test_Data_File_Flag_Overrides_Default_Location(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	c.MustRun("--data-file", "other/d.tsv", "put", "20240101", "-t", "x", "-b", "")

	if _, err := os.Stat(filepath.Join(c.Dir, "other", "d.tsv")); err != nil {
		t.Fatalf("override data file missing: %v", err)
	}

	if _, err := os.Stat(c.DataFile()); err == nil {
		t.Error("default data file written despite override")
	}
}

func Test_Export_Writes_JSON_Snapshot(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("put", "20240102", "-t", "B", "-b", "two")
	c.MustRun("put", "20240101", "-t", "A", "-b", "one")

	out := c.MustRun("export", "backup/diary.json")
	cli.AssertContains(t, out, "exported 2 entries")

	data, err := os.ReadFile(filepath.Join(c.Dir, "backup", "diary.json"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var snap struct {
		Entries []struct {
			DateKey string `json:"dateKey"`
			Title   string `json:"title"`
			Content string `json:"content"`
		} `json:"entries"`
	}

	err = json.Unmarshal(data, &snap)
	if err != nil {
		t.Fatalf("export is not JSON: %v\n%s", err, data)
	}

	if len(snap.Entries) != 2 || snap.Entries[0].DateKey != "20240101" || snap.Entries[1].Content != "two" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func Test_Shell_Runs_Commands_From_Piped_Input(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	script := strings.Join([]string{
		"put 20240105 Shell title",
		"first body line",
		"second body line",
		".",
		"ls",
		"show 20240105",
		"bogus",
		"rm 20240105",
		"exit",
		"ls",
	}, "\n")

	stdout, stderr, code := c.RunWithInput(script, "shell")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}

	cli.AssertContains(t, stdout, "saved 20240105")
	cli.AssertContains(t, stdout, "first body line\nsecond body line")
	cli.AssertContains(t, stdout, "unknown command: bogus")
	cli.AssertContains(t, stdout, "deleted 20240105")

	// ls ran once; the one after exit must not.
	if got := strings.Count(stdout, "2024-01-05  Shell title"); got != 1 {
		t.Errorf("ls output appeared %d times, want 1\n%s", got, stdout)
	}
}
