package maintenance

import (
	"regexp"

	"github.com/orneryd/amem/internal/capture"
	"github.com/orneryd/amem/internal/model"
)

// CaptureMode selects how much of an external adapter's payload
// auto-capture is willing to persist (§4.9, "Auto-capture").
type CaptureMode string

const (
	// CaptureOff disables auto-capture entirely.
	CaptureOff CaptureMode = "off"
	// CaptureSafe only captures a fixed set of recognized structured
	// fields: feedback, summary, note.
	CaptureSafe CaptureMode = "safe"
	// CaptureFull captures broader content, excluding payloads that
	// duplicate a direct memory_add call (the adapter's own explicit
	// write path, which auto-capture must not double-record).
	CaptureFull CaptureMode = "full"
)

// safeFields is the fixed set of structured field names CaptureSafe
// recognizes; anything else is dropped in that mode.
var safeFields = map[string]bool{
	"feedback": true,
	"summary":  true,
	"note":     true,
}

// DefaultByteCap truncates any single captured payload's content past
// this many bytes.
const DefaultByteCap = 4096

// redaction patterns for email-like, secret-key-like, and
// filesystem-path-like substrings (§4.9, "Auto-capture", redaction
// pass). These are heuristics, not RFC-grade validators: auto-capture
// prioritizes not leaking an obvious secret over precisely classifying
// every possible one.
var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	secretPattern = regexp.MustCompile(`(?i)\b(?:sk|pk|api|key|token|secret)[-_][a-zA-Z0-9_]{8,}\b`)
	pathPattern   = regexp.MustCompile(`(?:/[\w.\-]+){2,}`)
)

// CaptureOptions configures one capture pass.
type CaptureOptions struct {
	Mode      CaptureMode
	Redact    bool
	ByteCap   int
	Session   uint32
	Timestamp int64
}

func (o CaptureOptions) byteCap() int {
	if o.ByteCap > 0 {
		return o.ByteCap
	}
	return DefaultByteCap
}

// CapturePayload is one field->content pair an external adapter is
// asking to persist, plus a flag noting whether it duplicates a direct
// memory_add call the adapter already issued separately.
type CapturePayload struct {
	Field               string
	Content             string
	DuplicatesMemoryAdd bool
}

// Capture filters payloads by mode, redacts and truncates the survivors,
// and stages them durably in the Badger-backed queue rather than writing
// them straight into the graph. Staging first means a crash between an
// adapter's call and the next scheduled Flush loses nothing: the record
// is already on disk in the queue. CaptureOff stages nothing.
func (s *Source) Capture(queue *capture.StagingQueue, payloads []CapturePayload, opts CaptureOptions) (int, error) {
	if opts.Mode == CaptureOff {
		return 0, nil
	}

	staged := 0
	for _, p := range payloads {
		if !eligibleForMode(p, opts.Mode) {
			continue
		}
		content := p.Content
		if opts.Redact {
			content = redact(content)
		}
		if limit := opts.byteCap(); len(content) > limit {
			content = content[:limit]
		}

		err := queue.Enqueue(capture.Record{
			Field:     p.Field,
			Content:   content,
			Session:   opts.Session,
			Timestamp: opts.Timestamp,
		})
		if err != nil {
			return staged, err
		}
		staged++
	}
	return staged, nil
}

// FlushCaptured drains up to limit staged records from queue and folds
// them into the graph as fact nodes in one pass, mirroring how a batch of
// direct add() calls would land them. A limit of zero or less drains the
// entire queue.
func (s *Source) FlushCaptured(queue *capture.StagingQueue, limit int) ([]model.NodeID, error) {
	records, err := queue.Drain(limit)
	if err != nil {
		return nil, err
	}

	written := make([]model.NodeID, 0, len(records))
	for _, r := range records {
		id, err := s.Graph.AddNode(model.KindFact, r.Session, 1.0, r.Timestamp, r.Content,
			map[string]string{"capture_field": r.Field}, nil)
		if err != nil {
			return written, err
		}
		written = append(written, id)
	}
	return written, nil
}

func eligibleForMode(p CapturePayload, mode CaptureMode) bool {
	switch mode {
	case CaptureSafe:
		return safeFields[p.Field]
	case CaptureFull:
		return !p.DuplicatesMemoryAdd
	default:
		return false
	}
}

// redact strips email-like, secret-key-like, and filesystem-path-like
// substrings from content, replacing each with a fixed placeholder that
// names the category removed rather than leaving a gap that invites
// guessing.
func redact(content string) string {
	content = emailPattern.ReplaceAllString(content, "[redacted-email]")
	content = secretPattern.ReplaceAllString(content, "[redacted-secret]")
	content = pathPattern.ReplaceAllString(content, "[redacted-path]")
	return content
}
