package blob

import (
	"context"
	"fmt"
	"os"

	blobfs "fishynet/internal/infra/blob/fs"
	blobmem "fishynet/internal/infra/blob/memory"
	blobs3 "fishynet/internal/infra/blob/s3"
)

// Open selects a blob.Store implementation using environment variables.
//
//	FISHYNET_BLOB_DRIVER: fs|s3|memory (default fs)
//	FISHYNET_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("FISHYNET_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return blobfs.New(os.Getenv("FISHYNET_BLOB_FS_ROOT"))
	case DriverS3:
		return blobs3.OpenFromEnv(ctx)
	case DriverMemory:
		return blobmem.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
