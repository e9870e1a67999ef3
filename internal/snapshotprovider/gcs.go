package snapshotprovider

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"

	"github.com/jvmlens/jvmlens/internal/errorutil"
	"github.com/jvmlens/jvmlens/internal/snapshotutil"
)

// Gcs implements snapshotutil.ObjectHandler on a Google Cloud Storage bucket.
type Gcs struct {
	BucketHandle *storage.BucketHandle
}

// Put writes an object to the bucket with name being the path.
func (g *Gcs) Put(ctx context.Context, name string) (io.WriteCloser, error) {
	return g.BucketHandle.Object(name).NewWriter(ctx), nil
}

// Get reads an object from the bucket with name being the path.
func (g *Gcs) Get(ctx context.Context, name string) (snapshotutil.ReadSizeCloser, error) {
	rc, err := g.BucketHandle.Object(name).NewReader(ctx)
	if err != nil && errors.Is(err, storage.ErrObjectNotExist) {
		return nil, errorutil.ErrSnapshotNotFound
	}
	return rc, err
}
