package diary_test

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/diary/internal/diary"
	"github.com/calvinalkan/diary/internal/testutil"
)

// model is the in-memory reference the store is checked against.
type model struct {
	entries map[string]diary.Entry
}

func (m *model) upsert(key, title, body, now string) diary.Entry {
	createdAt := now
	if prev, ok := m.entries[key]; ok {
		createdAt = prev.CreatedAt
	}

	e := diary.Entry{Key: key, Title: title, Body: body, CreatedAt: createdAt, UpdatedAt: now}
	m.entries[key] = e

	return e
}

func (m *model) list() []diary.Entry {
	out := make([]diary.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}

	diary.SortDescending(out)

	return out
}

func Test_Store_Matches_Model_When_Random_Ops_Applied(t *testing.T) {
	t.Parallel()

	for seed := range uint64(8) {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			clock := testutil.NewClock()
			path := filepath.Join(t.TempDir(), "diary.tsv")

			store, err := diary.Open(t.Context(), diary.Config{
				Path: path,
				Gate: diary.NewGate(),
				Now:  clock.Now,
			})
			require.NoError(t, err)

			m := &model{entries: make(map[string]diary.Entry)}
			keys := []string{"20240101", "20240102", "20240215", "20241231", "20250101"}
			texts := []string{"", "plain", "tab\there", "line\nbreak", `back\slash`, "\\n literal", "ünïcödé"}

			for step := range 200 {
				key := keys[rng.IntN(len(keys))]

				switch rng.IntN(4) {
				case 0:
					title := texts[rng.IntN(len(texts))]
					body := texts[rng.IntN(len(texts))]

					got, err := store.Upsert(t.Context(), key, title, body)
					require.NoError(t, err, "step %d", step)

					want := m.upsert(key, title, body, diary.FormatTimestamp(clock.Peek()))
					if diff := cmp.Diff(want, got); diff != "" {
						t.Fatalf("step %d upsert %s (-want +got):\n%s", step, key, diff)
					}
				case 1:
					existed, err := store.Delete(t.Context(), key)
					require.NoError(t, err, "step %d", step)

					_, want := m.entries[key]
					delete(m.entries, key)
					require.Equal(t, want, existed, "step %d delete %s", step, key)
				case 2:
					got, found, err := store.Get(t.Context(), key)
					require.NoError(t, err, "step %d", step)

					want, wantFound := m.entries[key]
					require.Equal(t, wantFound, found, "step %d get %s", step, key)

					if diff := cmp.Diff(want, got); diff != "" {
						t.Fatalf("step %d get %s (-want +got):\n%s", step, key, diff)
					}
				default:
					got, err := store.List(t.Context())
					require.NoError(t, err, "step %d", step)

					if diff := cmp.Diff(m.list(), got); diff != "" {
						t.Fatalf("step %d list (-want +got):\n%s", step, diff)
					}
				}
			}

			// A fresh store on the same file sees the same state.
			reopened, err := diary.Open(t.Context(), diary.Config{Path: path, Gate: diary.NewGate()})
			require.NoError(t, err)

			got, err := reopened.List(t.Context())
			require.NoError(t, err)
			require.True(t, slices.Equal(m.list(), got), "reopened store diverged from model")
		})
	}
}
