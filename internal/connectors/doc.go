// Package connectors builds storage connectors from source configuration.
// Each backend lives in its own sub-package (local, s3, minio) and is
// registered with the Factory under its type name.
package connectors
