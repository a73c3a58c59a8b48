package profile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsesrobotics/dashboard/internal/storage"
	"github.com/marsesrobotics/dashboard/internal/user"
)

// Smallest valid PNG and GIF headers are enough for content sniffing.
var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
)

type recordingStore struct {
	keys      []string
	types     []string
	deleted   []string
	deleteErr error
}

func (r *recordingStore) Put(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	r.keys = append(r.keys, key)
	r.types = append(r.types, contentType)
	return "/uploads/" + key, nil
}

func (r *recordingStore) Delete(_ context.Context, key string) error {
	r.deleted = append(r.deleted, key)
	return r.deleteErr
}

var _ storage.Storage = (*recordingStore)(nil)

func newTestService(maxBytes int64) (*Service, *recordingStore, *user.MemoryRepository) {
	store := &recordingStore{}
	users := user.NewMemoryRepository()
	svc := NewService(store, users, maxBytes)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, store, users
}

func TestStoreAvatarNamesFileFromContent(t *testing.T) {
	svc, store, _ := newTestService(1 << 20)

	url, err := svc.StoreAvatar(context.Background(), "photo.exe", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	require.Len(t, store.keys, 1)
	assert.Regexp(t, regexp.MustCompile(`^avatar-1700000000000-[0-9a-f]{8}\.png$`), store.keys[0])
	assert.Equal(t, "image/png", store.types[0])
	assert.Equal(t, "/uploads/"+store.keys[0], url)
}

func TestStoreAvatarAcceptsGIF(t *testing.T) {
	svc, store, _ := newTestService(1 << 20)

	_, err := svc.StoreAvatar(context.Background(), "a.gif", bytes.NewReader(gifBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(store.keys[0], ".gif"))
}

func TestStoreAvatarRejects(t *testing.T) {
	svc, store, _ := newTestService(int64(len(pngBytes)))

	_, err := svc.StoreAvatar(context.Background(), "a.txt", strings.NewReader("hello, world"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = svc.StoreAvatar(context.Background(), "a.png", bytes.NewReader(append(pngBytes, 0)))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.StoreAvatar(context.Background(), "a.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	assert.Empty(t, store.keys)
}

func TestUpdatePicture(t *testing.T) {
	svc, _, users := newTestService(1 << 20)
	ctx := context.Background()

	u := &user.User{Email: "a@b.com", ProfilePicture: "/images/default-avatar.png"}
	require.NoError(t, users.Create(ctx, u))

	url, err := svc.UpdatePicture(ctx, u.ID, "me.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, url, stored.ProfilePicture)

	_, err = svc.UpdatePicture(ctx, "missing", "me.png", bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUpdatePictureRemovesFileWhenUserMissing(t *testing.T) {
	svc, store, _ := newTestService(1 << 20)

	_, err := svc.UpdatePicture(context.Background(), "missing", "me.png", bytes.NewReader(pngBytes))
	require.ErrorIs(t, err, user.ErrNotFound)

	require.Len(t, store.keys, 1)
	assert.Equal(t, store.keys, store.deleted)
}

func TestUpdatePictureReportsFailedCleanup(t *testing.T) {
	svc, store, _ := newTestService(1 << 20)
	store.deleteErr = errors.New("bucket unavailable")

	_, err := svc.UpdatePicture(context.Background(), "missing", "me.png", bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.ErrorContains(t, err, "bucket unavailable")
}

func TestUpdatePictureLeavesNoFileOnDisk(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)
	svc := NewService(local, user.NewMemoryRepository(), 1<<20)

	_, err = svc.UpdatePicture(context.Background(), "missing", "me.png", bytes.NewReader(pngBytes))
	require.ErrorIs(t, err, user.ErrNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
