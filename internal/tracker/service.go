package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/ordertrack/internal/eventlog"
	"github.com/sells-group/ordertrack/internal/extract"
	"github.com/sells-group/ordertrack/internal/fetcher"
	"github.com/sells-group/ordertrack/internal/monitoring"
)

// ServiceOptions wires a Service.
type ServiceOptions struct {
	BootstrapPath  string
	BootstrapSheet string // XLSX sheet name, "" = first sheet
	Log            *eventlog.Log
	Aliases        Aliases
	Mode           KeyMode
	Carry          CarryMode
	DefaultView    View
	Metrics        *monitoring.Collector // optional
}

// Service is the reconciliation facade the HTTP layer and CLI talk to.
//
// A single coarse mutex serializes event appends and read-then-classify
// passes: a reader never observes a torn append and two concurrent webhook
// deliveries never interleave. Reconciliation is CPU-light and request
// volume is low, so pass-granularity locking is acceptable. Aggregates are
// rebuilt from scratch on every read; there is no cached state to
// invalidate.
type Service struct {
	opts ServiceOptions

	mu sync.Mutex
	sf singleflight.Group
}

// NewService creates a Service.
func NewService(opts ServiceOptions) *Service {
	if opts.Mode == "" {
		opts.Mode = KeyModeComposite
	}
	if opts.Carry == "" {
		opts.Carry = CarryPaired
	}
	if opts.DefaultView == "" {
		opts.DefaultView = ViewClassified
	}
	return &Service{opts: opts}
}

// Meta describes the inputs behind a snapshot.
type Meta struct {
	LastLiveEventAt string `json:"last_live_event_at"`
	BootstrapPath   string `json:"bootstrap_csv"`
}

// Snapshot is one classified view of all orders.
type Snapshot struct {
	Summary Summary           `json:"summary"`
	Orders  []ClassifiedOrder `json:"orders"`
	Meta    Meta              `json:"meta"`
}

// RecordsSnapshot is one flat records view.
type RecordsSnapshot struct {
	Summary RecordsSummary `json:"summary"`
	Records []Record       `json:"records"`
	Meta    Meta           `json:"meta"`
}

// IngestResult reports what one webhook delivery contributed.
type IngestResult struct {
	EventID         string   `json:"event_id"`
	ReceivedAt      string   `json:"received_at"`
	AcceptedEntries int      `json:"accepted_entries"`
	OrderKeys       []string `json:"order_keys"`
	Summary         Summary  `json:"summary"`
}

// ErrUnknownView marks a view value outside the known set. Callers use it
// to report a bad request rather than a reconciliation failure.
var ErrUnknownView = eris.New("tracker: unknown view")

// GetClassifiedOrders rebuilds the aggregate state from the bootstrap export
// and the durable log and classifies every order. An empty view selects the
// configured default; an unrecognized one fails with ErrUnknownView.
// Identical concurrent reads are coalesced into one pass.
func (s *Service) GetClassifiedOrders(ctx context.Context, view View) (Snapshot, error) {
	if view == "" {
		view = s.opts.DefaultView
	}
	if view != ViewClassified && view != ViewAll {
		return Snapshot{}, eris.Wrapf(ErrUnknownView, "%q", view)
	}

	v, err, _ := s.sf.Do(fmt.Sprintf("orders:%s", view), func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.classifyLocked(ctx, view)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// GetRecords rebuilds and returns the flat records view.
func (s *Service) GetRecords(ctx context.Context) (RecordsSnapshot, error) {
	v, err, _ := s.sf.Do("records", func() (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		entries, err := s.loadEntriesLocked(ctx)
		if err != nil {
			return RecordsSnapshot{}, err
		}
		summary, rows := Records(entries, s.opts.Mode)
		s.opts.Metrics.ClassifyPass()
		return RecordsSnapshot{Summary: summary, Records: rows, Meta: s.metaLocked()}, nil
	})
	if err != nil {
		return RecordsSnapshot{}, err
	}
	return v.(RecordsSnapshot), nil
}

// IngestEvent durably appends a webhook payload and reclassifies under one
// critical section, returning what was recorded along with the fresh
// summary so callers need not re-run classification themselves.
func (s *Service) IngestEvent(ctx context.Context, payload extract.Value) (IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.opts.Log.Append(payload)
	if err != nil {
		return IngestResult{}, err
	}
	s.opts.Metrics.EventIngested()

	result := IngestResult{
		EventID:    rec.ID,
		ReceivedAt: rec.ReceivedAt,
	}
	for _, e := range Normalize(payload, s.opts.Aliases, s.opts.Mode) {
		key := e.OrderKey(s.opts.Mode)
		if key == "" {
			zap.L().Debug("ingested entry with no resolvable order key")
			continue
		}
		result.AcceptedEntries++
		result.OrderKeys = append(result.OrderKeys, key)
	}

	snap, err := s.classifyLocked(ctx, s.opts.DefaultView)
	if err != nil {
		return IngestResult{}, err
	}
	result.Summary = snap.Summary

	return result, nil
}

// LastEventAt returns the receipt time of the newest durable-log record.
func (s *Service) LastEventAt() string {
	return s.opts.Log.LastReceivedAt()
}

func (s *Service) classifyLocked(ctx context.Context, view View) (Snapshot, error) {
	entries, err := s.loadEntriesLocked(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	summary, orders := Classify(entries, s.opts.Mode, view)
	s.opts.Metrics.ClassifyPass()

	return Snapshot{Summary: summary, Orders: orders, Meta: s.metaLocked()}, nil
}

// loadEntriesLocked re-reads both inputs: bootstrap entries first, then live
// entries in receipt order. Caller holds s.mu.
func (s *Service) loadEntriesLocked(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "tracker: load entries")
	}

	rows, err := s.readBootstrap()
	if err != nil {
		return nil, err
	}
	entries := LoadBootstrap(rows, s.opts.Aliases, LoadOptions{Mode: s.opts.Mode, Carry: s.opts.Carry})

	records, skipped, err := s.opts.Log.ReadAll()
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.opts.Metrics.LogLinesSkipped(skipped)
		zap.L().Warn("skipped malformed event log lines", zap.Int("count", skipped))
	}

	for _, rec := range records {
		entries = append(entries, Normalize(rec.Payload, s.opts.Aliases, s.opts.Mode)...)
	}

	return entries, nil
}

func (s *Service) readBootstrap() ([][]string, error) {
	if s.opts.BootstrapSheet != "" {
		return fetcher.ReadXLSX(s.opts.BootstrapPath, fetcher.XLSXOptions{SheetName: s.opts.BootstrapSheet})
	}
	return fetcher.ReadTable(s.opts.BootstrapPath)
}

func (s *Service) metaLocked() Meta {
	return Meta{
		LastLiveEventAt: s.opts.Log.LastReceivedAt(),
		BootstrapPath:   s.opts.BootstrapPath,
	}
}
