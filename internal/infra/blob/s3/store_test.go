package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"fishynet/internal/blob/core"
)

func s3Object(key string, size int64, modified time.Time) s3types.Object {
	return s3types.Object{Key: aws.String(key), Size: aws.Int64(size), LastModified: aws.Time(modified)}
}

type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

type fakeS3 struct {
	objects map[string]fakeObject
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string]fakeObject)} }

func (f *fakeS3) HeadObject(_ context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	obj, ok := f.objects[*in.Key]
	if !ok {
		return nil, fmt.Errorf("NotFound: %s", *in.Key)
	}
	return &awss3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		ETag:          aws.String(`"abc123"`),
		Metadata:      obj.metadata,
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	obj := fakeObject{data: data, metadata: in.Metadata, modified: time.Now().UTC()}
	if in.ContentType != nil {
		obj.contentType = *in.ContentType
	}
	f.objects[*in.Key] = obj
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	obj, ok := f.objects[*in.Key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", *in.Key)
	}
	return &awss3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		Metadata:      obj.metadata,
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key, obj := range f.objects {
		if in.Prefix != nil && len(*in.Prefix) > 0 && (len(key) < len(*in.Prefix) || key[:len(*in.Prefix)] != *in.Prefix) {
			continue
		}
		k := key
		out.Contents = append(out.Contents, s3Object(k, int64(len(obj.data)), obj.modified))
	}
	return out, nil
}

type fakePresign struct{}

func (fakePresign) PresignGetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.PresignOptions)) (string, error) {
	return "https://bucket.s3.local/" + *in.Key + "?signed=1", nil
}

func newFakeStore() (*Store, *fakeS3) {
	client := newFakeS3()
	return &Store{client: client, presign: fakePresign{}, bucket: "fish-events"}, client
}

func TestPutGetRoundTrip(t *testing.T) {
	store, _ := newFakeStore()
	ctx := context.Background()

	payload := []byte(`{"kind":"fish_sold"}` + "\n")
	info, err := store.Put(ctx, "events/a.jsonl", bytes.NewReader(payload), core.PutOptions{
		ContentType: "application/x-ndjson",
		Metadata:    map[string]string{"events": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(payload)) || info.ETag != "abc123" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "events/a.jsonl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch: %q err=%v", data, err)
	}
	if got.ContentType != "application/x-ndjson" || got.Metadata["events"] != "1" {
		t.Fatalf("metadata lost: %+v", got)
	}
}

func TestPutRejectsExistingKey(t *testing.T) {
	store, _ := newFakeStore()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("a")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("b")), core.PutOptions{}); err == nil {
		t.Fatalf("expected create-only failure")
	}
}

func TestListOrdersByKey(t *testing.T) {
	store, _ := newFakeStore()
	ctx := context.Background()
	for _, key := range []string{"events/b", "events/a", "other/c"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "events/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "events/a" || infos[1].Key != "events/b" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestPresign(t *testing.T) {
	store, _ := newFakeStore()
	url, err := store.PresignURL(context.Background(), "events/a.jsonl", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if url != "https://bucket.s3.local/events/a.jsonl?signed=1" {
		t.Fatalf("unexpected url %s", url)
	}
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatalf("non-GET presign should be unsupported")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("FISHYNET_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
