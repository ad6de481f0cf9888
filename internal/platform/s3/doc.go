// Package s3 provides a client for S3-compatible object storage holding
// archived run records.
//
// The client is bound to one bucket. It creates the bucket on demand,
// uploads finished run records and lists or fetches them again for
// inspection.
package s3
