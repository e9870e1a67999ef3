package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/jvmlens/jvmlens/internal/agent"
	"github.com/jvmlens/jvmlens/internal/errorutil"
	"github.com/jvmlens/jvmlens/internal/profileview"
	"github.com/jvmlens/jvmlens/internal/sampledtree"
	"github.com/jvmlens/jvmlens/internal/snapshotutil"
)

// minSupportedAgentVersion is the oldest agent whose sampled-tree snapshots
// carry per-node metric names. Older snapshots can be archived but not
// rendered.
const minSupportedAgentVersion = "0.9"

type (
	postProfileResponse struct {
		SnapshotID string `json:"snapshot_id"`
	}

	profileResponse struct {
		agent.Outcome
		Profile *profileview.RenderedTree `json:"profile,omitempty"`
	}

	catalogResponse struct {
		agent.Outcome
		MetricPaths []profileview.CatalogEntry `json:"metric_paths,omitempty"`
	}
)

func (e *environment) postProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	var snapshot sampledtree.Snapshot
	s := sentry.StartSpan(ctx, "json.unmarshal")
	err := gojson.NewDecoder(r.Body).Decode(&snapshot)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if snapshot.Root == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	snapshot.SnapshotID = uuid.New().String()
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}
	hub.Scope().SetTag("snapshot_id", snapshot.SnapshotID)

	s = sentry.StartSpan(ctx, "snapshot.write")
	err = snapshotutil.CompressedWrite(ctx, e.snapshots, snapshot.SnapshotID, snapshot)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, hub, postProfileResponse{SnapshotID: snapshot.SnapshotID})
}

func (e *environment) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	snapshot, outcome, ok := e.readSnapshot(w, r)
	if !ok {
		return
	}
	if !outcome.OK() {
		writeJSON(w, hub, profileResponse{Outcome: outcome})
		return
	}

	batchSize := 0
	if raw := r.URL.Query().Get("batch_size"); raw != "" {
		var err error
		batchSize, err = strconv.Atoi(raw)
		if err != nil || batchSize < 1 {
			http.Error(w, "batch_size must be a positive integer", http.StatusBadRequest)
			return
		}
	}
	metricPath := r.URL.Query().Get("metric_path")

	s := sentry.StartSpan(ctx, "profile.render")
	root := sampledtree.Aggregate(snapshot.Root)
	tree := profileview.RenderBatched(root, metricPath, batchSize)
	s.Finish()

	writeJSON(w, hub, profileResponse{Profile: &tree})
}

func (e *environment) getProfileCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	snapshot, outcome, ok := e.readSnapshot(w, r)
	if !ok {
		return
	}
	if !outcome.OK() {
		writeJSON(w, hub, catalogResponse{Outcome: outcome})
		return
	}

	s := sentry.StartSpan(ctx, "profile.catalog")
	entries := profileview.Catalog(sampledtree.Aggregate(snapshot.Root))
	s.Finish()

	writeJSON(w, hub, catalogResponse{MetricPaths: entries})
}

// readSnapshot loads the snapshot named by the route. A missing snapshot or
// an unsupported producing agent is reported through the outcome, not as an
// error; ok is false only when a response was already written.
func (e *environment) readSnapshot(w http.ResponseWriter, r *http.Request) (sampledtree.Snapshot, agent.Outcome, bool) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)
	snapshotID := ps.ByName("snapshot_id")
	hub.Scope().SetTag("snapshot_id", snapshotID)

	var snapshot sampledtree.Snapshot
	s := sentry.StartSpan(ctx, "snapshot.read")
	err := snapshotutil.UnmarshalCompressed(ctx, e.snapshots, snapshotID, &snapshot)
	s.Finish()
	if err != nil {
		if errors.Is(err, errorutil.ErrSnapshotNotFound) {
			return snapshot, agent.Unavailable(), true
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return snapshot, agent.Outcome{}, false
	}
	if !agentVersionSupported(snapshot.AgentVersion) {
		return snapshot, agent.Unsupported(snapshot.AgentVersion), true
	}
	return snapshot, agent.Outcome{}, true
}

func agentVersionSupported(version string) bool {
	if version == "" {
		return true
	}
	return compareVersions(version, minSupportedAgentVersion) >= 0
}

// compareVersions compares dotted numeric versions segment by segment;
// non-numeric segments compare as zero.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var an, bn int
		if i < len(as) {
			an, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bn, _ = strconv.Atoi(bs[i])
		}
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, hub *sentry.Hub, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
