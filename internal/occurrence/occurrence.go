package occurrence

import (
	"crypto/md5"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/jvmlens/jvmlens/internal/threaddump"
)

type (
	EvidenceName string
	IssueTitle   string
	Type         int

	Evidence struct {
		Name      EvidenceName `json:"name"`
		Value     string       `json:"value"`
		Important bool         `json:"important"`
	}

	// Event holds the metadata related to the thread dump a detection came
	// from.
	Event struct {
		Environment string            `json:"environment"`
		ID          string            `json:"event_id"`
		Received    time.Time         `json:"received"`
		Tags        map[string]string `json:"tags,omitempty"`
		Transaction string            `json:"transaction,omitempty"`
	}

	// Occurrence represents one deadlock cycle detected in a thread dump.
	Occurrence struct {
		DetectionTime   time.Time              `json:"detection_time"`
		Event           Event                  `json:"event"`
		EvidenceData    map[string]interface{} `json:"evidence_data,omitempty"`
		EvidenceDisplay []Evidence             `json:"evidence_display,omitempty"`
		Fingerprint     string                 `json:"fingerprint"`
		ID              string                 `json:"id"`
		IssueTitle      IssueTitle             `json:"issue_title"`
		Level           string                 `json:"level,omitempty"`
		Subtitle        string                 `json:"subtitle"`
		Type            Type                   `json:"type"`

		// Only used for stats.
		cycleSize int
	}
)

const (
	NoneType     Type = 0
	DeadlockType Type = 3001

	DeadlockIssueTitle IssueTitle = "Deadlocked Threads Detected"

	EvidenceNameThread EvidenceName = "Deadlocked thread"
)

// NewDeadlockOccurrence builds the Occurrence for one deadlock cycle. The
// fingerprint is derived from the cycle's member names so that repeated dumps
// of the same stuck threads group together.
func NewDeadlockOccurrence(event Event, cycle []threaddump.CycleThread) *Occurrence {
	names := make([]string, 0, len(cycle))
	for _, member := range cycle {
		names = append(names, member.Name)
	}
	h := md5.New()
	_, _ = io.WriteString(h, string(DeadlockIssueTitle))
	_, _ = io.WriteString(h, strconv.Itoa(int(DeadlockType)))
	for _, name := range names {
		_, _ = io.WriteString(h, name)
	}
	fingerprint := fmt.Sprintf("%x", h.Sum(nil))

	evidence := make([]Evidence, 0, len(cycle))
	for i, member := range cycle {
		evidence = append(evidence, Evidence{
			Name:      EvidenceNameThread,
			Value:     fmt.Sprintf("%q %s, %s", member.Name, member.Desc1, member.Desc2),
			Important: i == 0,
		})
	}

	return &Occurrence{
		DetectionTime: time.Now().UTC(),
		Event:         event,
		EvidenceData: map[string]interface{}{
			"cycle_size":   len(cycle),
			"thread_names": names,
		},
		EvidenceDisplay: evidence,
		Fingerprint:     fingerprint,
		ID:              strings.ReplaceAll(uuid.New().String(), "-", ""),
		IssueTitle:      DeadlockIssueTitle,
		Level:           "error",
		Subtitle:        fmt.Sprintf("%d threads deadlocked", len(cycle)),
		Type:            DeadlockType,
		cycleSize:       len(cycle),
	}
}

// FromDump builds one Occurrence per deadlock cycle found in the dump.
func FromDump(event Event, cycles [][]threaddump.CycleThread) []Occurrence {
	occurrences := make([]Occurrence, 0, len(cycles))
	for _, cycle := range cycles {
		occurrences = append(occurrences, *NewDeadlockOccurrence(event, cycle))
	}
	return occurrences
}

// Save implements bigquery.ValueSaver for the detection stats table.
func (o *Occurrence) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"cycle_size":  o.cycleSize,
		"detected_at": o.DetectionTime,
		"dump_id":     o.Event.ID,
		"environment": o.Event.Environment,
		"fingerprint": o.Fingerprint,
		"type":        int(o.Type),
	}, bigquery.NoDedupeID, nil
}
