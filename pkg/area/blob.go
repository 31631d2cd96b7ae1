package area

import (
	"context"
	"io"
	"strings"

	"go.uber.org/multierr"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Blob implements Area using gocloud.dev/blob.
// This supports GCS, S3, Azure, local files and memory buckets.
type Blob struct {
	bucket *blob.Bucket
	prefix string
}

// NewBlob opens bucketURL, e.g. "gs://bucket-name" or "file:///var/lib/recordstore".
// prefix is an optional path prefix for all keys.
func NewBlob(ctx context.Context, bucketURL, prefix string) (*Blob, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return NewBlobFromBucket(bucket, prefix), nil
}

// NewBlobFromBucket creates a blob area from an existing bucket.
// This is useful for testing with memblob.
func NewBlobFromBucket(bucket *blob.Bucket, prefix string) *Blob {
	// Normalize prefix: ensure trailing slash if non-empty
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}
	return &Blob{
		bucket: bucket,
		prefix: prefix,
	}
}

func (b *Blob) Get(keys []string, cb func(items Items, err error)) {
	go func() {
		items, err := b.get(context.Background(), keys)
		if cb != nil {
			cb(items, err)
		}
	}()
}

func (b *Blob) Set(items Items, cb func(err error)) {
	values := make(Items, len(items))
	for k, v := range items {
		values[k] = v
	}
	go func() {
		ctx := context.Background()
		var err error
		for k, v := range values {
			if err = b.bucket.WriteAll(ctx, b.fullKey(k), []byte(v), nil); err != nil {
				break
			}
		}
		callback(cb, err)
	}()
}

func (b *Blob) Remove(keys []string, cb func(err error)) {
	keys = append([]string(nil), keys...)
	go func() {
		callback(cb, b.remove(context.Background(), keys))
	}()
}

func (b *Blob) Clear(cb func(err error)) {
	go func() {
		ctx := context.Background()
		keys, err := b.list(ctx)
		if err == nil {
			err = b.remove(ctx, keys)
		}
		callback(cb, err)
	}()
}

func (b *Blob) GetBytesInUse(keys []string, cb func(bytes int64, err error)) {
	go func() {
		n, err := b.bytesInUse(context.Background(), keys)
		if cb != nil {
			cb(n, err)
		}
	}()
}

func (b *Blob) Quota() Quota {
	return Quota{}
}

func (b *Blob) Close() error {
	return b.bucket.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (b *Blob) fullKey(key string) string {
	if b.prefix == "" {
		return key
	}
	return b.prefix + key
}

func (b *Blob) get(ctx context.Context, keys []string) (Items, error) {
	if keys == nil {
		var err error
		if keys, err = b.list(ctx); err != nil {
			return nil, err
		}
	}
	items := make(Items, len(keys))
	for _, key := range keys {
		data, err := b.bucket.ReadAll(ctx, b.fullKey(key))
		if gcerrors.Code(err) == gcerrors.NotFound {
			continue
		} else if err != nil {
			return nil, err
		}
		items[key] = string(data)
	}
	return items, nil
}

func (b *Blob) remove(ctx context.Context, keys []string) error {
	var errs error
	for _, key := range keys {
		if err := b.bucket.Delete(ctx, b.fullKey(key)); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (b *Blob) list(ctx context.Context) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{
		Prefix: b.prefix,
	})

	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, strings.TrimPrefix(obj.Key, b.prefix))
	}
	return keys, nil
}

func (b *Blob) bytesInUse(ctx context.Context, keys []string) (int64, error) {
	var n int64
	if keys == nil {
		iter := b.bucket.List(&blob.ListOptions{
			Prefix: b.prefix,
		})
		for {
			obj, err := iter.Next(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				return 0, err
			}
			if !obj.IsDir {
				n += int64(len(strings.TrimPrefix(obj.Key, b.prefix))) + obj.Size
			}
		}
		return n, nil
	}
	for _, key := range keys {
		attrs, err := b.bucket.Attributes(ctx, b.fullKey(key))
		if gcerrors.Code(err) == gcerrors.NotFound {
			continue
		} else if err != nil {
			return 0, err
		}
		n += int64(len(key)) + attrs.Size
	}
	return n, nil
}
