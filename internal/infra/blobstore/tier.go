// Package blobstore implements the two-tier storage gateway over gocloud
// blob buckets: an in-memory bucket for the volatile tier and a file-backed
// bucket for the durable tier.
package blobstore

import (
	"context"
	"io"
	"log/slog"

	"prepwise/internal/domain/storage"
	"prepwise/internal/errors"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// blobTier adapts a *blob.Bucket to the storage.Tier contract.
type blobTier struct {
	scope  storage.TierScope
	bucket *blob.Bucket
	logger *slog.Logger
}

// NewVolatileTier returns a tier scoped to this process's lifetime.
func NewVolatileTier(logger *slog.Logger) storage.Tier {
	return &blobTier{
		scope:  storage.TierVolatile,
		bucket: memblob.OpenBucket(nil),
		logger: logger,
	}
}

// NewDurableTier returns a tier backed by files under dir, persisting across
// restarts.
func NewDurableTier(dir string, logger *slog.Logger) (storage.Tier, error) {
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{CreateDir: true})
	if err != nil {
		return nil, errors.Wrapf(err, "open durable bucket at %s", dir)
	}

	return &blobTier{
		scope:  storage.TierDurable,
		bucket: bucket,
		logger: logger,
	}, nil
}

func (t *blobTier) Scope() storage.TierScope {
	return t.scope
}

func (t *blobTier) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := t.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, storage.ErrKeyNotFound
		}

		return nil, errors.Wrapf(err, "read %s key %s", t.scope, key)
	}

	return value, nil
}

func (t *blobTier) Write(ctx context.Context, key string, value []byte) error {
	if err := t.bucket.WriteAll(ctx, key, value, nil); err != nil {
		return errors.Wrapf(err, "write %s key %s", t.scope, key)
	}

	return nil
}

func (t *blobTier) Delete(ctx context.Context, key string) error {
	err := t.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(err, "delete %s key %s", t.scope, key)
	}

	return nil
}

func (t *blobTier) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	iter := t.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A broken scan yields what was seen so far rather than failing.
			t.logger.Warn("storage scan aborted",
				slog.String("tier", string(t.scope)),
				slog.Any("error", err),
			)

			break
		}

		keys = append(keys, obj.Key)
	}

	return keys, nil
}

// Close releases the underlying bucket.
func (t *blobTier) Close() error {
	return errors.Wrap(t.bucket.Close(), "close bucket")
}
