package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/CAFxX/httpcompression"
	"github.com/dgraph-io/badger/v4"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	"github.com/jvmlens/jvmlens/internal/envutil"
	"github.com/jvmlens/jvmlens/internal/httputil"
	"github.com/jvmlens/jvmlens/internal/logutil"
	"github.com/jvmlens/jvmlens/internal/snapshotprovider"
	"github.com/jvmlens/jvmlens/internal/snapshotutil"
)

type environment struct {
	config ServiceConfig

	occurrencesWriter   *kafka.Writer
	occurrencesInserter *bigquery.Inserter

	storage    *storage.Client
	badgerDB   *badger.DB
	blobBucket *blob.Bucket
	snapshots  snapshotutil.ObjectHandler
}

var release string

func newEnvironment() (*environment, error) {
	var e environment
	if err := cleanenv.ReadEnv(&e.config); err != nil {
		return nil, err
	}
	e.config.Environment = envutil.GetEnvOrFallback("JVMLENS_ENVIRONMENT", "development")

	ctx := context.Background()
	var err error
	switch e.config.SnapshotsBackend {
	case "gcs":
		e.storage, err = storage.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		e.snapshots = &snapshotprovider.Gcs{BucketHandle: e.storage.Bucket(e.config.SnapshotsBucket)}
	case "blob":
		e.blobBucket, err = blob.OpenBucket(ctx, e.config.BlobBucketURL)
		if err != nil {
			return nil, err
		}
		e.snapshots = &snapshotprovider.Blob{Bucket: e.blobBucket}
	case "badger":
		e.badgerDB, err = badger.Open(badger.DefaultOptions(e.config.BadgerPath))
		if err != nil {
			return nil, err
		}
		e.snapshots = &snapshotprovider.Badger{DB: e.badgerDB}
	default:
		return nil, fmt.Errorf("unknown snapshots backend %q", e.config.SnapshotsBackend)
	}

	if e.config.BigQueryProjectID != "" {
		bqClient, err := bigquery.NewClient(ctx, e.config.BigQueryProjectID)
		if err != nil {
			return nil, err
		}
		e.occurrencesInserter = bqClient.Dataset(e.config.BigQueryDataset).Table(e.config.BigQueryTable).Inserter()
	}
	e.occurrencesWriter = &kafka.Writer{
		Addr:         kafka.TCP(e.config.OccurrencesKafkaBrokers...),
		Async:        true,
		Balancer:     kafka.CRC32Balancer{},
		BatchSize:    100,
		ReadTimeout:  3 * time.Second,
		Topic:        e.config.OccurrencesKafkaTopic,
		WriteTimeout: 3 * time.Second,
	}
	return &e, nil
}

func (e *environment) shutdown() {
	if e.storage != nil {
		if err := e.storage.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	if e.badgerDB != nil {
		if err := e.badgerDB.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	if e.blobBucket != nil {
		if err := e.blobBucket.Close(); err != nil {
			sentry.CaptureException(err)
		}
	}
	if err := e.occurrencesWriter.Close(); err != nil {
		sentry.CaptureException(err)
	}
	sentry.Flush(5 * time.Second)
}

func (e *environment) newRouter() (*httprouter.Router, error) {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", e.getHealth},
		{http.MethodGet, "/profiles/:snapshot_id", e.getProfile},
		{http.MethodGet, "/profiles/:snapshot_id/catalog", e.getProfileCatalog},
		{http.MethodPost, "/heap-histogram", e.postHeapHistogram},
		{http.MethodPost, "/mbean-tree", e.postMBeanTree},
		{http.MethodPost, "/profile", e.postProfile},
		{http.MethodPost, "/threaddump", e.postThreadDump},
	}

	router := httprouter.New()

	for _, route := range routes {
		handlerFunc := httputil.DecompressPayload(route.handler)
		handler := compress(handlerFunc)

		router.Handler(route.method, route.path, handler)
	}

	return router, nil
}

func main() {
	logutil.ConfigureLogger()

	env, err := newEnvironment()
	if err != nil {
		log.Fatal().Err(err).Msg("error setting up environment")
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:                   env.config.SentryDSN,
		EnableTracing:         true,
		Environment:           env.config.Environment,
		Release:               release,
		TracesSampleRate:      1.0,
		BeforeSendTransaction: httputil.SetHTTPStatusCodeTag,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}

	router, err := env.newRouter()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("error setting up the router")
	}

	server := http.Server{
		Addr:    ":" + envutil.GetPort(),
		Handler: sentryhttp.New(sentryhttp.Options{}).Handle(router),
	}

	waitForShutdown := make(chan os.Signal)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(cctx); err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error shutting down server")
		}

		close(waitForShutdown)
	}()

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		sentry.CaptureException(err)
		log.Err(err).Msg("server failed")
	}

	<-waitForShutdown

	// Shutdown the rest of the environment after the HTTP connections are closed
	env.shutdown()
}

func (e *environment) getHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
