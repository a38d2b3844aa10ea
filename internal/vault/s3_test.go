package vault

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"arc-go/internal/config"
)

// fakeS3 is an in-memory bucket behind the s3API and uploader interfaces.
type fakeS3 struct {
	mu        sync.Mutex
	bucket    string
	objects   map[string][]byte
	metadata  map[string]map[string]string
	uploadErr error
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{
		bucket:   bucket,
		objects:  make(map[string][]byte),
		metadata: make(map[string]map[string]string),
	}
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.metadata[aws.ToString(in.Key)] = in.Metadata
	return &manager.UploadOutput{Key: in.Key}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{Metadata: f.metadata[aws.ToString(in.Key)]}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func newTestS3Vault(prefix string) (*S3Vault, *fakeS3) {
	fake := newFakeS3("snapshots")
	return newS3Vault("offsite", "snapshots", prefix, fake, fake), fake
}

func TestS3Vault_PutAndGetSnapshot(t *testing.T) {
	ctx := context.Background()
	v, fake := newTestS3Vault("prod/")

	if err := v.PutSnapshot(ctx, "inst-1", strings.NewReader("sqlite"), 6, 42); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}
	if _, ok := fake.objects["prod/inst-1.db"]; !ok {
		t.Errorf("object keys = %v, want prod/inst-1.db", fake.objects)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot(ctx, "inst-1", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != "sqlite" {
		t.Errorf("GetSnapshot() = %q, want %q", buf.String(), "sqlite")
	}

	version, err := v.GetSnapshotVersion(ctx, "inst-1")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 42 {
		t.Errorf("GetSnapshotVersion() = %d, want 42", version)
	}
}

func TestS3Vault_Key(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "inst.db"},
		{"prod", "prod/inst.db"},
		{"prod/", "prod/inst.db"},
		{"a/b/", "a/b/inst.db"},
	}
	for _, tt := range tests {
		v, _ := newTestS3Vault(tt.prefix)
		if got := v.key("inst"); got != tt.want {
			t.Errorf("key() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestS3Vault_Missing(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestS3Vault("")

	var buf bytes.Buffer
	if err := v.GetSnapshot(ctx, "nobody", &buf); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("GetSnapshot() error = %v, want ErrSnapshotNotFound", err)
	}
	if version, err := v.GetSnapshotVersion(ctx, "nobody"); err != nil || version != 0 {
		t.Errorf("GetSnapshotVersion() = %d, %v; want 0, nil", version, err)
	}
}

func TestS3Vault_PutSnapshotErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("size mismatch", func(t *testing.T) {
		v, _ := newTestS3Vault("")
		if err := v.PutSnapshot(ctx, "inst", strings.NewReader("abc"), 10, 1); err == nil {
			t.Error("PutSnapshot() expected size mismatch error")
		}
	})

	t.Run("upload failure", func(t *testing.T) {
		v, fake := newTestS3Vault("")
		fake.uploadErr = errors.New("connection reset")
		if err := v.PutSnapshot(ctx, "inst", strings.NewReader("abc"), 3, 1); err == nil {
			t.Error("PutSnapshot() expected upload error")
		}
	})
}

func TestS3Vault_ValidateSetup(t *testing.T) {
	ctx := context.Background()

	v, _ := newTestS3Vault("")
	if err := v.ValidateSetup(ctx); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	missing := newS3Vault("offsite", "other-bucket", "", newFakeS3("snapshots"), nil)
	if err := missing.ValidateSetup(ctx); err == nil {
		t.Error("ValidateSetup() expected error for missing bucket")
	}
}

func TestNewS3Vault(t *testing.T) {
	t.Run("requires bucket", func(t *testing.T) {
		if _, err := NewS3Vault(context.Background(), config.VaultConfig{Type: "s3", Name: "x"}); err == nil {
			t.Error("NewS3Vault() expected error without bucket")
		}
	})

	t.Run("static credentials and endpoint", func(t *testing.T) {
		v, err := NewS3Vault(context.Background(), config.VaultConfig{
			Type:        "s3",
			Name:        "minio",
			S3Bucket:    "arc",
			S3Region:    "us-east-1",
			S3Endpoint:  "http://localhost:9000",
			S3AccessKey: "minioadmin",
			S3SecretKey: "minioadmin",
		})
		if err != nil {
			t.Fatalf("NewS3Vault() error = %v", err)
		}
		if v.bucket != "arc" || v.name != "minio" {
			t.Errorf("vault = %+v", v)
		}
	})
}
