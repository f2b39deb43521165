// Package filestore uploads avatar images. The S3 store targets AWS or any
// S3-compatible endpoint (MinIO); the disk store serves development setups.
package filestore
