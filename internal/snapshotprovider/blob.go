package snapshotprovider

import (
	"context"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/jvmlens/jvmlens/internal/errorutil"
	"github.com/jvmlens/jvmlens/internal/snapshotutil"
)

// Blob implements snapshotutil.ObjectHandler on any gocloud bucket, so the
// archive can be pointed at portable URLs such as file:// or s3://.
type Blob struct {
	Bucket *blob.Bucket
}

// Put writes an object to the bucket with name being the path.
func (b *Blob) Put(ctx context.Context, name string) (io.WriteCloser, error) {
	return b.Bucket.NewWriter(ctx, name, nil)
}

// Get reads an object from the bucket with name being the path.
func (b *Blob) Get(ctx context.Context, name string) (snapshotutil.ReadSizeCloser, error) {
	r, err := b.Bucket.NewReader(ctx, name, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errorutil.ErrSnapshotNotFound
		}
		return nil, err
	}
	return r, nil
}
