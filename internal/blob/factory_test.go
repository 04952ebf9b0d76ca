package blob

import (
	"context"
	"testing"
)

func TestOpenDefaultsToFilesystem(t *testing.T) {
	t.Setenv("FISHYNET_BLOB_DRIVER", "")
	t.Setenv("FISHYNET_BLOB_FS_ROOT", t.TempDir())
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s, want fs", store.Driver())
	}
}

func TestOpenMemoryDriver(t *testing.T) {
	t.Setenv("FISHYNET_BLOB_DRIVER", "memory")
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s, want memory", store.Driver())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv("FISHYNET_BLOB_DRIVER", "tape")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv("FISHYNET_BLOB_DRIVER", "s3")
	t.Setenv("FISHYNET_BLOB_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
