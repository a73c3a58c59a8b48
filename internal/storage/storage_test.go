package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsesrobotics/dashboard/internal/config"
)

func TestLocalStoragePut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "avatar-1.png", strings.NewReader("data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatar-1.png", url)

	got, err := os.ReadFile(filepath.Join(dir, "avatar-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestLocalStorageDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "a.png", strings.NewReader("x"), "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "a.png"))
	_, err = os.Stat(filepath.Join(dir, "a.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.NoError(t, s.Delete(context.Background(), "a.png"), "missing keys are ignored")
	assert.ErrorIs(t, s.Delete(context.Background(), "../a.png"), ErrInvalidKey)
}

func TestLocalStorageRefusesOverwrite(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "a.png", strings.NewReader("one"), "")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "a.png", strings.NewReader("two"), "")
	assert.Error(t, err)
}

func TestLocalStorageRejectsUnsafeKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, key := range []string{"", "../x.png", "a/b.png", `a\b.png`, ".hidden"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

type fakeS3 struct {
	input   *s3.PutObjectInput
	deleted *s3.DeleteObjectInput
	body    string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		b, _ := io.ReadAll(params.Body)
		f.body = string(b)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoragePut(t *testing.T) {
	client := &fakeS3{}
	s := newS3Storage(client, config.UploadConfig{
		S3Bucket:   "avatars",
		S3Region:   "eu-west-1",
		S3Endpoint: "http://127.0.0.1:9000/",
	})

	url, err := s.Put(context.Background(), "avatar-1.png", strings.NewReader("data"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000/avatars/avatar-1.png", url)
	assert.Equal(t, "avatars", aws.ToString(client.input.Bucket))
	assert.Equal(t, "avatar-1.png", aws.ToString(client.input.Key))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, "data", client.body)
}

func TestS3StoragePublicURL(t *testing.T) {
	s := newS3Storage(&fakeS3{}, config.UploadConfig{S3Bucket: "avatars", S3Region: "eu-west-1"})
	url, err := s.Put(context.Background(), "a.png", strings.NewReader("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "https://avatars.s3.eu-west-1.amazonaws.com/a.png", url)

	s = newS3Storage(&fakeS3{}, config.UploadConfig{S3Bucket: "avatars", S3PublicBaseURL: "https://cdn.example.com/"})
	url, err = s.Put(context.Background(), "a.png", strings.NewReader("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", url)
}

func TestS3StoragePutError(t *testing.T) {
	s := newS3Storage(&fakeS3{err: errors.New("boom")}, config.UploadConfig{S3Bucket: "avatars"})
	_, err := s.Put(context.Background(), "a.png", strings.NewReader("x"), "")
	assert.ErrorContains(t, err, "boom")
}

func TestS3StorageDelete(t *testing.T) {
	client := &fakeS3{}
	s := newS3Storage(client, config.UploadConfig{S3Bucket: "avatars", S3Region: "eu-west-1"})

	require.NoError(t, s.Delete(context.Background(), "avatar-1.png"))
	require.NotNil(t, client.deleted)
	assert.Equal(t, "avatars", aws.ToString(client.deleted.Bucket))
	assert.Equal(t, "avatar-1.png", aws.ToString(client.deleted.Key))

	s = newS3Storage(&fakeS3{err: errors.New("boom")}, config.UploadConfig{S3Bucket: "avatars"})
	assert.ErrorContains(t, s.Delete(context.Background(), "a.png"), "boom")
}
