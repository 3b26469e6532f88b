// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = fst.Save(ctx, store, "terms.fst", f, fst.WithCompression(fst.CompressionZSTD))
//	f, err := fst.Load(ctx, store, "terms.fst")
//
// # Features
//
//   - Range reads for partial fetches (combine with blobstore.CachingStore)
//   - Multipart uploads for large FSTs
//   - CRC32C checksums on uploads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
