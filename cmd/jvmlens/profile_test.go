package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/julienschmidt/httprouter"
	"gocloud.dev/blob/memblob"

	"github.com/jvmlens/jvmlens/internal/agent"
	"github.com/jvmlens/jvmlens/internal/sampledtree"
	"github.com/jvmlens/jvmlens/internal/snapshotprovider"
	"github.com/jvmlens/jvmlens/internal/snapshotutil"
	"github.com/jvmlens/jvmlens/internal/testutil"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0.9", "0.9", 0},
		{"0.10", "0.9", 1},
		{"0.9", "0.10", -1},
		{"1", "1.0", 0},
		{"1.0.1", "1.0", 1},
		{"", "0.9", -1},
		// non-numeric segments compare as zero
		{"abc", "0", 0},
		{"0.9.x", "0.9", 0},
	}
	for _, test := range tests {
		if got := compareVersions(test.a, test.b); got != test.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestAgentVersionSupported(t *testing.T) {
	tests := map[string]bool{
		"":       true,
		"0.8":    false,
		"0.8.7":  false,
		"0.9":    true,
		"0.9.0":  true,
		"0.10.2": true,
		"1.2":    true,
	}
	for version, want := range tests {
		if got := agentVersionSupported(version); got != want {
			t.Errorf("agentVersionSupported(%q) = %v, want %v", version, got, want)
		}
	}
}

func blobEnvironment(t *testing.T) *environment {
	t.Helper()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { bucket.Close() })
	return &environment{snapshots: &snapshotprovider.Blob{Bucket: bucket}}
}

func snapshotRequest(t *testing.T, snapshotID string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/profiles/"+snapshotID, nil)
	ctx := sentry.SetHubOnContext(r.Context(), sentry.NewHub(nil, sentry.NewScope()))
	ctx = context.WithValue(ctx, httprouter.ParamsKey, httprouter.Params{
		{Key: "snapshot_id", Value: snapshotID},
	})
	return r.WithContext(ctx)
}

func TestGetProfileMissingSnapshot(t *testing.T) {
	env := blobEnvironment(t)

	w := httptest.NewRecorder()
	env.getProfile(w, snapshotRequest(t, "does-not-exist"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp profileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if diff := testutil.Diff(agent.Unavailable(), resp.Outcome); diff != "" {
		t.Fatalf("outcome mismatch: %s", diff)
	}
	if resp.Profile != nil {
		t.Fatalf("expected no profile payload, got %+v", resp.Profile)
	}
}

func TestGetProfileUnsupportedVersion(t *testing.T) {
	env := blobEnvironment(t)
	snapshot := sampledtree.Snapshot{
		SnapshotID:   "old",
		AgentVersion: "0.8.7",
		Root:         &sampledtree.Node{StackTraceElement: "java.lang.Thread.run", SampleCount: 1},
	}
	if err := snapshotutil.CompressedWrite(context.Background(), env.snapshots, "old", snapshot); err != nil {
		t.Fatalf("we should be able to archive the snapshot: %v", err)
	}

	w := httptest.NewRecorder()
	env.getProfile(w, snapshotRequest(t, "old"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp profileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if diff := testutil.Diff(agent.Unsupported("0.8.7"), resp.Outcome); diff != "" {
		t.Fatalf("outcome mismatch: %s", diff)
	}
	if resp.Profile != nil {
		t.Fatalf("expected no profile payload, got %+v", resp.Profile)
	}
}

func TestGetProfileSupportedSnapshot(t *testing.T) {
	env := blobEnvironment(t)
	snapshot := sampledtree.Snapshot{
		SnapshotID:   "current",
		AgentVersion: "0.14.0",
		Root: &sampledtree.Node{
			StackTraceElement: "java.lang.Thread.run",
			SampleCount:       2,
			ChildNodes: []*sampledtree.Node{
				{
					StackTraceElement: "org.example.Servlet.service",
					SampleCount:       2,
					LeafThreadState:   "RUNNABLE",
					MetricNames:       []string{"http request"},
				},
			},
		},
	}
	if err := snapshotutil.CompressedWrite(context.Background(), env.snapshots, "current", snapshot); err != nil {
		t.Fatalf("we should be able to archive the snapshot: %v", err)
	}

	w := httptest.NewRecorder()
	env.getProfile(w, snapshotRequest(t, "current"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp profileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Outcome.OK() {
		t.Fatalf("expected an ordinary rendering, got outcome %+v", resp.Outcome)
	}
	if resp.Profile == nil || len(resp.Profile.Nodes) == 0 {
		t.Fatalf("expected a rendered profile, got %+v", resp.Profile)
	}
}

func TestGetProfileCatalogMissingSnapshot(t *testing.T) {
	env := blobEnvironment(t)

	w := httptest.NewRecorder()
	env.getProfileCatalog(w, snapshotRequest(t, "does-not-exist"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp catalogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if diff := testutil.Diff(agent.Unavailable(), resp.Outcome); diff != "" {
		t.Fatalf("outcome mismatch: %s", diff)
	}
	if len(resp.MetricPaths) != 0 {
		t.Fatalf("expected no catalog entries, got %+v", resp.MetricPaths)
	}
}
