// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "splits/")
//
// S3 has no native write-once primitive that works across all S3-compatible
// services, so [WriteOnceStore] records each written name in a DynamoDB table
// with a conditional put and only then uploads the object:
//
//	guarded := s3.NewWriteOnceStore(store, dynamodb.NewFromConfig(cfg), "protsplit-records", "s3://my-bucket/splits")
//
// # Features
//
//   - Range reads through GetObject
//   - Uploads through the s3 manager uploader
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
