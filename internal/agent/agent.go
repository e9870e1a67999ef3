// Package agent declares the boundary between the analysis core and the
// external collaborators that produce snapshots: the acquisition layer and
// the instrumentation layer. The core consumes already-materialized
// snapshots and never implements these capabilities itself.
package agent

type (
	// Outcome rides on otherwise-successful responses. A snapshot source
	// being offline, or a snapshot version that cannot serve the requested
	// operation, are ordinary results, not errors.
	Outcome struct {
		SourceUnavailable    bool   `json:"source_unavailable,omitempty"`
		UnsupportedOperation string `json:"unsupported_operation,omitempty"`
	}

	// Availability reports whether a capability can be served, with the
	// reason when it cannot.
	Availability struct {
		Available bool   `json:"available"`
		Reason    string `json:"reason,omitempty"`
	}

	// SpanRecorder is implemented by the instrumentation layer that weaves
	// metric spans around monitored code. The analysis core only ever sees
	// the metric names such spans left behind in a snapshot.
	SpanRecorder interface {
		BeginSpan(name string) Span
	}

	// Span is one open instrumentation span.
	Span interface {
		// End closes the span; err is nil on success.
		End(err error)
	}
)

// Unavailable is the sentinel outcome for an offline snapshot source.
func Unavailable() Outcome {
	return Outcome{SourceUnavailable: true}
}

// Unsupported is the sentinel outcome for an operation the snapshot's
// producing version cannot serve.
func Unsupported(version string) Outcome {
	return Outcome{UnsupportedOperation: version}
}

// OK reports whether the outcome carries no sentinel flag.
func (o Outcome) OK() bool {
	return !o.SourceUnavailable && o.UnsupportedOperation == ""
}
