package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func fixedNow() time.Time { return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC) }

func TestUpload_KeyAndURL(t *testing.T) {
	fp := &fakePutter{}
	u := &S3Uploader{client: fp, bucket: "items", baseURL: "https://cdn.example.com", now: fixedNow}

	url, err := u.Upload(context.Background(), Image{Filename: "Hammer.PNG", ContentType: "image/png", Size: 3, Body: bytes.NewReader([]byte("png"))})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^https://cdn\.example\.com/items/2025/3/7/[0-9a-f-]{36}\.png$`), url)
	require.NotNil(t, fp.input)
	assert.Equal(t, "items", *fp.input.Bucket)
	assert.True(t, strings.HasPrefix(*fp.input.Key, "items/2025/3/7/"))
	assert.Equal(t, "image/png", *fp.input.ContentType)
	assert.Equal(t, int64(3), *fp.input.ContentLength)
	assert.Equal(t, []byte("png"), fp.body)
}

func TestUpload_DefaultContentType(t *testing.T) {
	fp := &fakePutter{}
	u := &S3Uploader{client: fp, bucket: "items", baseURL: "http://x", now: fixedNow}

	_, err := u.Upload(context.Background(), Image{Filename: "blob", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", *fp.input.ContentType)
	assert.Nil(t, fp.input.ContentLength)
}

func TestUpload_Error(t *testing.T) {
	u := &S3Uploader{client: &fakePutter{err: errors.New("denied")}, bucket: "items", baseURL: "http://x", now: fixedNow}

	_, err := u.Upload(context.Background(), Image{Filename: "a.jpg", Body: strings.NewReader("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(Options{PublicURL: "https://cdn.example.com/", Endpoint: "http://minio:9000", Bucket: "b"}))
	assert.Equal(t, "http://minio:9000/b", publicBaseURL(Options{Endpoint: "http://minio:9000/", Bucket: "b"}))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", publicBaseURL(Options{Bucket: "b", Region: "eu-west-1"}))
}

func TestNewS3Uploader_PutsToCustomEndpoint(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := NewS3Uploader(context.Background(), Options{
		Bucket:    "items",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), Image{Filename: "a.jpg", ContentType: "image/jpeg", Size: 5, Body: bytes.NewReader([]byte("hello"))})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/items/items/"), gotPath)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Contains(t, string(gotBody), "hello")
	assert.Equal(t, srv.URL+gotPath, url)
}
