package main

type (
	ServiceConfig struct {
		Environment string

		SentryDSN string `env:"SENTRY_DSN"`

		// SnapshotsBackend selects where archived snapshots live:
		// "gcs", "blob" or "badger".
		SnapshotsBackend string `env:"SNAPSHOTS_BACKEND" env-default:"badger"`
		SnapshotsBucket  string `env:"SNAPSHOTS_BUCKET" env-default:"jvmlens-snapshots"`
		BadgerPath       string `env:"SNAPSHOTS_BADGER_PATH" env-default:"/var/lib/jvmlens/snapshots"`
		BlobBucketURL    string `env:"SNAPSHOTS_BLOB_URL" env-default:"file:///var/lib/jvmlens/snapshots"`

		OccurrencesKafkaBrokers []string `env:"OCCURRENCES_KAFKA_BROKERS" env-default:"localhost:9092"`
		OccurrencesKafkaTopic   string   `env:"OCCURRENCES_KAFKA_TOPIC" env-default:"ingest-occurrences"`

		// When a project id is set, deadlock occurrences are also inserted
		// into BigQuery for stats.
		BigQueryProjectID string `env:"BIGQUERY_PROJECT_ID"`
		BigQueryDataset   string `env:"BIGQUERY_DATASET" env-default:"issues"`
		BigQueryTable     string `env:"BIGQUERY_TABLE" env-default:"occurrences"`
	}
)
