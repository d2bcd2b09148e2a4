// Package eventlog provides the append-only durable log of received webhook
// payloads. Records are stored one JSON document per line; append order is
// arrival order.
package eventlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ordertrack/internal/extract"
)

// Record is one durable log line.
type Record struct {
	ID         string        `json:"id"`
	ReceivedAt string        `json:"received_at"`
	Payload    extract.Value `json:"payload"`
}

// Log is a JSONL-backed append-only store.
//
// The internal mutex only guards the file handle for appends; the
// cross-component ordering lock that serializes append-then-reclassify
// against reads belongs to the tracker service.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New creates a log backed by the file at path. The file and its parent
// directory are created lazily on first append.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the backing file path.
func (l *Log) Path() string { return l.path }

// Append durably records a payload and returns the stored record. The line
// is written with a single O_APPEND write so concurrent readers never
// observe a torn record.
func (l *Log) Append(payload extract.Value) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := Record{
		ID:         uuid.New().String(),
		ReceivedAt: l.now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return Record{}, eris.Wrap(err, "eventlog: marshal record")
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return Record{}, eris.Wrapf(err, "eventlog: create dir for %s", l.path)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Record{}, eris.Wrapf(err, "eventlog: open %s", l.path)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return Record{}, eris.Wrapf(err, "eventlog: append to %s", l.path)
	}

	return rec, nil
}

// ReadAll returns every parseable record in append order plus the count of
// malformed lines that were skipped. A missing file is an empty log, not an
// error; only resource-level failures (permissions, I/O) propagate.
func (l *Log) ReadAll() ([]Record, int, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, eris.Wrapf(err, "eventlog: open %s", l.path)
	}
	defer f.Close()

	var (
		records []Record
		skipped int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			// One bad line never invalidates the rest of the log.
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, eris.Wrapf(err, "eventlog: scan %s", l.path)
	}

	return records, skipped, nil
}

// LastReceivedAt returns the timestamp of the final parseable record, or ""
// when the log is empty or absent.
func (l *Log) LastReceivedAt() string {
	records, _, err := l.ReadAll()
	if err != nil || len(records) == 0 {
		return ""
	}
	return records[len(records)-1].ReceivedAt
}
