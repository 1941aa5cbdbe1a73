package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/calvinalkan/diary/internal/logging"
)

func Test_New_Writes_JSON_When_Format_Is_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log, err := logging.New("info", logging.FormatJSON, &buf)
	if err != nil {
		t.Fatal(err)
	}

	log.Debug("hidden")
	log.Info("hello", zap.String("key", "20240101"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug should be filtered):\n%s", len(lines), buf.String())
	}

	var rec map[string]any

	err = json.Unmarshal([]byte(lines[0]), &rec)
	if err != nil {
		t.Fatalf("not JSON: %v\n%s", err, lines[0])
	}

	if rec["msg"] != "hello" || rec["key"] != "20240101" || rec["level"] != "info" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func Test_New_Writes_Console_By_Default(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log, err := logging.New("debug", logging.FormatConsole, &buf)
	if err != nil {
		t.Fatal(err)
	}

	log.Debug("visible")

	if !strings.Contains(buf.String(), "visible") || strings.HasPrefix(buf.String(), "{") {
		t.Errorf("unexpected console output: %q", buf.String())
	}
}

func Test_New_Returns_Error_When_Level_Unknown(t *testing.T) {
	t.Parallel()

	_, err := logging.New("loud", logging.FormatJSON, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
}
