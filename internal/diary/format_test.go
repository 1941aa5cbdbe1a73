package diary_test

import (
	"testing"

	"github.com/calvinalkan/diary/internal/diary"
)

func Test_DecodeFile_Skips_Line_When_Fields_Are_Missing(t *testing.T) {
	t.Parallel()

	data := []byte("20240101\tFirst\tBody one\t2024-01-01T00:00:00.000Z\t2024-01-01T00:00:00.000Z\n" +
		"20240102\tbroken\tline\n" +
		"20240103\tThird\tBody three\t2024-01-03T00:00:00.000Z\t2024-01-03T01:00:00.000Z\n")

	entries, skipped := diary.DecodeFile(data)

	if got, want := skipped, 1; got != want {
		t.Fatalf("skipped=%d, want=%d", got, want)
	}

	if got, want := len(entries), 2; got != want {
		t.Fatalf("len(entries)=%d, want=%d", got, want)
	}

	if _, ok := entries["20240102"]; ok {
		t.Fatal("malformed line was decoded")
	}

	third := entries["20240103"]
	if got, want := third.Title, "Third"; got != want {
		t.Errorf("title=%q, want=%q", got, want)
	}

	if got, want := third.UpdatedAt, "2024-01-03T01:00:00.000Z"; got != want {
		t.Errorf("updatedAt=%q, want=%q", got, want)
	}
}

func Test_DecodeFile_Handles_CRLF_And_Blank_Lines(t *testing.T) {
	t.Parallel()

	data := []byte("\r\n20240101\tT\tB\tc\tu\r\n\n   \n20240102\tT2\tB2\tc2\tu2")

	entries, skipped := diary.DecodeFile(data)

	if skipped != 0 {
		t.Fatalf("skipped=%d, want=0", skipped)
	}

	if got, want := entries["20240101"].UpdatedAt, "u"; got != want {
		t.Errorf("updatedAt=%q, want=%q (CR not stripped?)", got, want)
	}

	if got, want := entries["20240102"].UpdatedAt, "u2"; got != want {
		t.Errorf("last line without newline: updatedAt=%q, want=%q", got, want)
	}
}

func Test_DecodeFile_Keeps_Last_Line_When_Key_Repeats(t *testing.T) {
	t.Parallel()

	data := []byte("20240101\told\tB\tc\tu\n20240101\tnew\tB\tc\tu\n")

	entries, _ := diary.DecodeFile(data)

	if got, want := entries["20240101"].Title, "new"; got != want {
		t.Fatalf("title=%q, want=%q", got, want)
	}
}

func Test_DecodeFile_Ignores_Extra_Fields(t *testing.T) {
	t.Parallel()

	entries, skipped := diary.DecodeFile([]byte("20240101\tT\tB\tc\tu\textra\tmore\n"))

	if skipped != 0 {
		t.Fatalf("skipped=%d, want=0", skipped)
	}

	if got, want := entries["20240101"].UpdatedAt, "u"; got != want {
		t.Fatalf("updatedAt=%q, want=%q", got, want)
	}
}

func Test_DecodeFile_Returns_Empty_Map_When_Data_Is_Empty(t *testing.T) {
	t.Parallel()

	entries, skipped := diary.DecodeFile(nil)

	if entries == nil || len(entries) != 0 || skipped != 0 {
		t.Fatalf("entries=%v skipped=%d, want empty non-nil map and 0", entries, skipped)
	}
}

func Test_EncodeFile_Returns_Nil_When_No_Entries(t *testing.T) {
	t.Parallel()

	if got := diary.EncodeFile(nil); got != nil {
		t.Fatalf("EncodeFile(nil)=%q, want nil", got)
	}
}

func Test_EncodeFile_Escapes_Text_Fields(t *testing.T) {
	t.Parallel()

	got := string(diary.EncodeFile([]diary.Entry{{
		Key:       "20240101",
		Title:     "a\tb",
		Body:      "line1\nline2\\",
		CreatedAt: "c",
		UpdatedAt: "u",
	}}))
	want := "20240101\ta\\tb\tline1\\nline2\\\\\tc\tu\n"

	if got != want {
		t.Fatalf("got=%q, want=%q", got, want)
	}
}

func Test_EncodeFile_Then_DecodeFile_Preserves_Entries(t *testing.T) {
	t.Parallel()

	in := []diary.Entry{
		{Key: "20240102", Title: "tabs\there", Body: "multi\nline\r\nbody", CreatedAt: "c2", UpdatedAt: "u2"},
		{Key: "20240101", Title: "", Body: `C:\path\to`, CreatedAt: "c1", UpdatedAt: "u1"},
	}
	diary.SortAscending(in)

	data := diary.EncodeFile(in)

	if got, want := string(data[:8]), "20240101"; got != want {
		t.Fatalf("first key on disk=%q, want=%q", got, want)
	}

	out, skipped := diary.DecodeFile(data)
	if skipped != 0 {
		t.Fatalf("skipped=%d, want=0", skipped)
	}

	for _, e := range in {
		if got := out[e.Key]; got != e {
			t.Errorf("key %s: got=%+v, want=%+v", e.Key, got, e)
		}
	}
}
