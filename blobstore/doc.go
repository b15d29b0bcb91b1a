// Package blobstore provides the storage abstraction for persisted split and
// name records.
//
// BlobStore is the interface for reading and writing small immutable blobs.
// Record names are paths such as "MONDO_0005044/split.json"; backends map them
// to files or object keys.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic temp-file + link writes
//   - MemoryStore: in-process map, for tests
//   - CachingStore: read-through cache in front of a slower store
//   - s3.Store / s3.WriteOnceStore: Amazon S3, optionally guarded by DynamoDB
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Write-once semantics
//
// Records are never overwritten. Use [PutIfAbsent], which uses the atomic
// [ConditionalPutter] path when a store offers one:
//
//	err := blobstore.PutIfAbsent(ctx, store, "split.json", data)
//	if errors.Is(err, blobstore.ErrExists) {
//	    // another run already persisted this split
//	}
package blobstore
