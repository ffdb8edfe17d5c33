package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ============================================================================
// HISTORY FORMATTING
// ============================================================================

// historySnippetLen bounds how much of each entry is quoted back into
// prompts; full content stays in the history itself.
const historySnippetLen = 200

// truncate shortens s to n runes for prompt context. Cutting on a rune
// boundary keeps multi-byte content valid when quoted back into prompts.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// formatHistory renders history entries for LLM context. Without this,
// roles repeat the same mistakes: it gives them memory of what was tried
// and what failed.
func formatHistory(entries []HistoryEntry) string {
	if len(entries) == 0 {
		return "No previous attempts."
	}

	var lines []string
	for _, entry := range entries {
		switch entry.Role {
		case RolePlanner:
			lines = append(lines, fmt.Sprintf("Plan Version %d:", entry.Version))
			lines = append(lines, "  "+truncate(entry.Content, historySnippetLen))
		case RoleWorker:
			lines = append(lines, fmt.Sprintf("Attempt %d:", entry.Attempt))
			lines = append(lines, "  Output: "+truncate(entry.Content, historySnippetLen))
		case RoleCritic:
			lines = append(lines, "  Critic Feedback: "+truncate(entry.Feedback, historySnippetLen))
			lines = append(lines, fmt.Sprintf("  Approved: %v", entry.Approved != nil && *entry.Approved))
		}
	}

	return strings.Join(lines, "\n")
}

// ============================================================================
// AUDIT LOG
// ============================================================================

// AuditEvent is one orchestration event for offline analysis
type AuditEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	RunID     string                 `json:"run_id"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// AuditWriter consumes orchestration events. Implementations must tolerate
// being called once per role invocation without slowing the run down.
type AuditWriter interface {
	Write(event AuditEvent) error
	Close() error
}

// NopAuditWriter discards all events
type NopAuditWriter struct{}

func (NopAuditWriter) Write(AuditEvent) error { return nil }
func (NopAuditWriter) Close() error           { return nil }

// JSONLAuditWriter appends one JSON object per line to a writer
type JSONLAuditWriter struct {
	mu  sync.Mutex
	w   io.WriteCloser
	enc *json.Encoder
}

// NewJSONLAuditWriter wraps an existing writer
func NewJSONLAuditWriter(w io.WriteCloser) *JSONLAuditWriter {
	return &JSONLAuditWriter{
		w:   w,
		enc: json.NewEncoder(w),
	}
}

// OpenJSONLAuditFile opens (or creates) an append-only JSONL audit file
func OpenJSONLAuditFile(path string) (*JSONLAuditWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	return NewJSONLAuditWriter(file), nil
}

// Write implements AuditWriter
func (j *JSONLAuditWriter) Write(event AuditEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(event)
}

// Close implements AuditWriter
func (j *JSONLAuditWriter) Close() error {
	return j.w.Close()
}

// ExportHistory writes the run's history as JSONL, one entry per line,
// for offline analysis of why the run succeeded or failed.
func (r *RunResult) ExportHistory(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, entry := range r.History {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("failed to export history entry: %w", err)
		}
	}
	return nil
}
