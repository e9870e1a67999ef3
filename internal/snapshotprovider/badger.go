package snapshotprovider

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/dgraph-io/badger/v4"

	"github.com/jvmlens/jvmlens/internal/errorutil"
	"github.com/jvmlens/jvmlens/internal/snapshotutil"
)

// Badger implements snapshotutil.ObjectHandler on a local BadgerDB, for
// single-node deployments without an object store.
type Badger struct {
	DB *badger.DB
}

// Put writes an object to the database with name being the key.
func (b *Badger) Put(ctx context.Context, name string) (io.WriteCloser, error) {
	transaction := b.DB.NewTransaction(true)
	return &badgerWriter{
		b:    &bytes.Buffer{},
		txn:  transaction,
		name: name,
	}, nil
}

// Get reads an object from the database with name being the key.
func (b *Badger) Get(ctx context.Context, name string) (snapshotutil.ReadSizeCloser, error) {
	transaction := b.DB.NewTransaction(false)
	item, err := transaction.Get([]byte(name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errorutil.ErrSnapshotNotFound
		}
		return nil, err
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	return &badgerReader{
		txn:    transaction,
		reader: bytes.NewReader(value),
		size:   item.ValueSize(),
	}, nil
}

// badgerWriter implements io.WriteCloser, committing on Close.
type badgerWriter struct {
	b    *bytes.Buffer
	txn  *badger.Txn
	name string
}

func (bw *badgerWriter) Write(b []byte) (n int, err error) {
	n, err = bw.b.Write(b)
	if err != nil {
		bw.txn.Discard()
	}
	return
}

func (bw *badgerWriter) Close() error {
	err := bw.txn.Set([]byte(bw.name), bw.b.Bytes())
	if err != nil {
		return err
	}
	return bw.txn.Commit()
}

// badgerReader implements snapshotutil.ReadSizeCloser.
type badgerReader struct {
	txn    *badger.Txn
	reader io.Reader
	size   int64
}

func (b *badgerReader) Read(p []byte) (n int, err error) {
	return b.reader.Read(p)
}

func (b *badgerReader) Close() error {
	return b.txn.Commit()
}

func (b *badgerReader) Size() int64 {
	return b.size
}
