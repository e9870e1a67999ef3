package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jvmlens/jvmlens/internal/occurrence"
	"github.com/jvmlens/jvmlens/internal/threaddump"
)

type threadDumpResponse struct {
	DumpID string `json:"dump_id"`
	threaddump.RenderedDump
}

func (e *environment) postThreadDump(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	var dump threaddump.Dump
	s := sentry.StartSpan(ctx, "json.unmarshal")
	err := gojson.NewDecoder(r.Body).Decode(&dump)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	dumpID := uuid.New().String()
	hub.Scope().SetTag("dump_id", dumpID)

	s = sentry.StartSpan(ctx, "threaddump.render")
	rendered := threaddump.RenderDump(&dump)
	s.Finish()

	if len(rendered.DeadlockedCycles) > 0 {
		e.publishDeadlocks(ctx, hub, dumpID, rendered.DeadlockedCycles)
	}

	writeJSON(w, hub, threadDumpResponse{DumpID: dumpID, RenderedDump: rendered})
}

// publishDeadlocks emits one occurrence per deadlock cycle. Publication is
// best effort: failures are captured and never fail the dump response.
func (e *environment) publishDeadlocks(ctx context.Context, hub *sentry.Hub, dumpID string, cycles [][]threaddump.CycleThread) {
	event := occurrence.Event{
		Environment: e.config.Environment,
		ID:          dumpID,
		Received:    time.Now().UTC(),
	}
	occurrences := occurrence.FromDump(event, cycles)

	messages, err := occurrence.GenerateKafkaMessageBatch(occurrences)
	if err != nil {
		hub.CaptureException(err)
	} else if err := e.occurrencesWriter.WriteMessages(ctx, messages...); err != nil {
		hub.CaptureException(err)
	}

	if e.occurrencesInserter != nil {
		savers := make([]*occurrence.Occurrence, 0, len(occurrences))
		for i := range occurrences {
			savers = append(savers, &occurrences[i])
		}
		if err := e.occurrencesInserter.Put(ctx, savers); err != nil {
			hub.CaptureException(err)
		}
	}
}
