package export

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmdash/internal/config"
	"crmdash/internal/table"
)

func sample() table.Export {
	return table.Export{
		Filename:    "customers-1717171717171.csv",
		ContentType: table.CSVMimeType,
		Data:        []byte("\"Name\"\n\"Budi Santoso\""),
	}
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink, err := New(context.Background(), config.ExportConfig{Dir: dir}, false)
	require.NoError(t, err)

	loc, err := sink.Write(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "customers-1717171717171.csv"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, sample().Data, data)
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

func TestS3SinkWrite(t *testing.T) {
	fake := &fakePutter{}
	sink := &S3Sink{client: fake, bucket: "crm-exports", prefix: "daily"}

	loc, err := sink.Write(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, "s3://crm-exports/daily/customers-1717171717171.csv", loc)
	assert.Equal(t, "crm-exports", *fake.in.Bucket)
	assert.Equal(t, "daily/customers-1717171717171.csv", *fake.in.Key)
	assert.Equal(t, table.CSVMimeType, *fake.in.ContentType)

	body, err := io.ReadAll(fake.in.Body)
	require.NoError(t, err)
	assert.Equal(t, sample().Data, body)
}

func TestS3SinkWriteError(t *testing.T) {
	boom := errors.New("access denied")
	sink := &S3Sink{client: &fakePutter{err: boom}, bucket: "crm-exports"}

	_, err := sink.Write(context.Background(), sample())
	assert.ErrorIs(t, err, boom)
}

func TestS3SinkAgainstEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIATEST")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))

	var (
		mu          sync.Mutex
		method      string
		objectPath  string
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, objectPath, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := New(context.Background(), config.ExportConfig{S3: config.S3Config{
		Bucket:    "crm-exports",
		Region:    "ap-southeast-3",
		Endpoint:  srv.URL,
		PathStyle: true,
	}}, true)
	require.NoError(t, err)

	loc, err := sink.Write(context.Background(), sample())
	require.NoError(t, err)
	assert.Equal(t, "s3://crm-exports/customers-1717171717171.csv", loc)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/crm-exports/customers-1717171717171.csv", objectPath)
	assert.Equal(t, table.CSVMimeType, contentType)
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
