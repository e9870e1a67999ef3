package main

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"

	"github.com/jvmlens/jvmlens/internal/mbeantree"
)

type (
	mbeanTreeRequest struct {
		MBeans   []mbeantree.MBeanInfo `json:"mbeans"`
		Expanded []string              `json:"expanded,omitempty"`
	}

	mbeanTreeResponse struct {
		Tree []*mbeantree.Node `json:"tree"`
	}
)

func (e *environment) postMBeanTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	var req mbeanTreeRequest
	if err := gojson.NewDecoder(r.Body).Decode(&req); err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	expanded := make(map[string]bool, len(req.Expanded))
	for _, objectName := range req.Expanded {
		expanded[objectName] = true
	}

	writeJSON(w, hub, mbeanTreeResponse{Tree: mbeantree.Build(req.MBeans, expanded)})
}
