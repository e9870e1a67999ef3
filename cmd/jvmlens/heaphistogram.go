package main

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"

	"github.com/jvmlens/jvmlens/internal/heaphistogram"
)

func (e *environment) postHeapHistogram(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	var histogram heaphistogram.Histogram
	if err := gojson.NewDecoder(r.Body).Decode(&histogram); err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	writeJSON(w, hub, heaphistogram.Render(&histogram))
}
