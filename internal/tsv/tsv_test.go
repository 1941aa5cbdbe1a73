package tsv_test

import (
	"strings"
	"testing"

	"github.com/calvinalkan/diary/internal/tsv"
)

func Test_Escape_Replaces_Special_Characters(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "Empty", in: "", want: ""},
		{name: "Plain", in: "hello world", want: "hello world"},
		{name: "Backslash", in: `a\b`, want: `a\\b`},
		{name: "Tab", in: "a\tb", want: `a\tb`},
		{name: "Newline", in: "a\nb", want: `a\nb`},
		{name: "CarriageReturnUntouched", in: "a\r\nb", want: "a\r\\nb"},
		{name: "LiteralEscapeSequenceText", in: `\n`, want: `\\n`},
		{name: "Mixed", in: "x\\\t\ny", want: `x\\\t\ny`},
		{name: "Unicode", in: "일기\t日記", want: `일기\t日記`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			if got, want := tsv.Escape(testCase.in), testCase.want; got != want {
				t.Fatalf("Escape(%q)=%q, want=%q", testCase.in, got, want)
			}
		})
	}
}

func Test_Unescape_Passes_Unknown_Escapes_Through(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "UnknownFollower", in: `a\xb`, want: `a\xb`},
		{name: "TrailingBackslash", in: `abc\`, want: `abc\`},
		{name: "OnlyBackslash", in: `\`, want: `\`},
		{name: "UnknownThenKnown", in: `\q\n`, want: "\\q\n"},
		{name: "DoubleThenLetter", in: `\\t`, want: `\t`},
		{name: "CapitalT", in: `\T`, want: `\T`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			if got, want := tsv.Unescape(testCase.in), testCase.want; got != want {
				t.Fatalf("Unescape(%q)=%q, want=%q", testCase.in, got, want)
			}
		})
	}
}

func Test_Escape_Output_Has_No_Tabs_Or_Newlines(t *testing.T) {
	t.Parallel()

	in := "line one\nline\ttwo\\\n\n\t"
	got := tsv.Escape(in)

	if strings.ContainsAny(got, "\t\n") {
		t.Fatalf("Escape(%q)=%q contains tab or newline", in, got)
	}
}

func FuzzEscapeRoundTrip(f *testing.F) {
	for _, seed := range []string{"", "plain", `\`, `\\`, "\t", "\n", `\n`, "a\\\tb\nc", "\r\n", "日記\\t"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, in string) {
		escaped := tsv.Escape(in)

		if strings.ContainsAny(escaped, "\t\n") {
			t.Fatalf("Escape(%q)=%q contains tab or newline", in, escaped)
		}

		if got := tsv.Unescape(escaped); got != in {
			t.Fatalf("Unescape(Escape(%q))=%q", in, got)
		}
	})
}
