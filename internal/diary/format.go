package diary

import (
	"bytes"
	"strings"

	"github.com/calvinalkan/diary/internal/tsv"
)

// fieldCount is the number of tab-separated fields in one record line:
// key, title, body, createdAt, updatedAt.
const fieldCount = 5

// DecodeFile parses the TSV data file into a map keyed by date.
//
// Lines may end in LF or CRLF. Blank lines are ignored. A line with fewer
// than five fields is dropped and counted in skipped; extra fields are
// ignored. When a key repeats, the later line wins.
func DecodeFile(data []byte) (entries map[string]Entry, skipped int) {
	entries = make(map[string]Entry)

	for len(data) > 0 {
		var line []byte

		line, data, _ = bytes.Cut(data, []byte{'\n'})
		line = bytes.TrimSuffix(line, []byte{'\r'})

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		fields := strings.SplitN(string(line), "\t", fieldCount+1)
		if len(fields) < fieldCount {
			skipped++

			continue
		}

		entries[fields[0]] = Entry{
			Key:       fields[0],
			Title:     tsv.Unescape(fields[1]),
			Body:      tsv.Unescape(fields[2]),
			CreatedAt: fields[3],
			UpdatedAt: fields[4],
		}
	}

	return entries, skipped
}

// EncodeFile renders entries as TSV, one LF-terminated line per entry, in
// the order given. Callers sort first; see [SortAscending]. An empty slice
// encodes to an empty (nil) buffer.
func EncodeFile(entries []Entry) []byte {
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer

	for _, e := range entries {
		buf.WriteString(e.Key)
		buf.WriteByte('\t')
		buf.WriteString(tsv.Escape(e.Title))
		buf.WriteByte('\t')
		buf.WriteString(tsv.Escape(e.Body))
		buf.WriteByte('\t')
		buf.WriteString(e.CreatedAt)
		buf.WriteByte('\t')
		buf.WriteString(e.UpdatedAt)
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}
