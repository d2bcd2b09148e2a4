package eventlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ordertrack/internal/extract"
)

func payload(t *testing.T, doc string) extract.Value {
	t.Helper()
	v, err := extract.FromJSON([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestAppendAndReadAll(t *testing.T) {
	t.Parallel()

	log := New(filepath.Join(t.TempDir(), "events", "live_events.jsonl"))

	first, err := log.Append(payload(t, `{"Ref Number":"001","Stage":"Paperwork Received"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.ReceivedAt)

	_, err = log.Append(payload(t, `{"Ref Number":"002"}`))
	require.NoError(t, err)

	records, skipped, err := log.ReadAll()
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)

	flat := extract.Flatten(records[0].Payload)
	assert.Equal(t, "001", flat["Ref Number"])
}

func TestReadAll_MissingFile(t *testing.T) {
	t.Parallel()

	log := New(filepath.Join(t.TempDir(), "absent.jsonl"))
	records, skipped, err := log.ReadAll()
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, records)
}

func TestReadAll_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"id":"a","received_at":"2026-01-02T03:04:05Z","payload":{"Ref Number":"001"}}
not json at all
{"id":"b","received_at":"2026-01-02T03:04:06Z","payload":{"Ref Number":"002"}}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, skipped, err := New(path).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestLastReceivedAt(t *testing.T) {
	t.Parallel()

	log := New(filepath.Join(t.TempDir(), "events.jsonl"))
	assert.Equal(t, "", log.LastReceivedAt())

	stamp := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	log.now = func() time.Time { return stamp }

	_, err := log.Append(payload(t, `{"Ref Number":"001"}`))
	require.NoError(t, err)

	assert.Equal(t, stamp.Format(time.RFC3339Nano), log.LastReceivedAt())
}

func TestAppend_CreatesParentDirs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deep", "nested", "events.jsonl")
	_, err := New(path).Append(payload(t, `{"Ref Number":"001"}`))
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
