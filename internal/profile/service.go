package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/marsesrobotics/dashboard/internal/storage"
	"github.com/marsesrobotics/dashboard/internal/user"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("empty file")
)

// allowedTypes maps accepted image types to the extension stored files get.
var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Service stores profile pictures and records them on the user
type Service struct {
	store    storage.Storage
	users    user.Repository
	maxBytes int64
	now      func() time.Time
}

func NewService(store storage.Storage, users user.Repository, maxBytes int64) *Service {
	return &Service{store: store, users: users, maxBytes: maxBytes, now: time.Now}
}

// StoreAvatar validates an uploaded image and stores it under a fresh
// avatar-<timestamp>-<random><ext> name. The extension follows the sniffed
// content type, not the client's filename.
func (s *Service) StoreAvatar(ctx context.Context, _ string, content io.Reader) (string, error) {
	_, url, err := s.storeAvatar(ctx, content)
	return url, err
}

func (s *Service) storeAvatar(ctx context.Context, content io.Reader) (key, url string, err error) {
	data, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", "", ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return "", "", ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedTypes[baseType(mtype)]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	key = fmt.Sprintf("avatar-%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)

	url, err = s.store.Put(ctx, key, bytes.NewReader(data), baseType(mtype))
	if err != nil {
		return "", "", fmt.Errorf("failed to store avatar: %w", err)
	}
	return key, url, nil
}

// UpdatePicture stores a new avatar and points the user's profile at it.
// If the user cannot be updated the stored file is removed again.
func (s *Service) UpdatePicture(ctx context.Context, userID, filename string, content io.Reader) (string, error) {
	key, url, err := s.storeAvatar(ctx, content)
	if err != nil {
		return "", err
	}

	if err := s.users.UpdateProfilePicture(ctx, userID, url); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			return "", errors.Join(err, fmt.Errorf("failed to remove orphaned avatar %s: %w", key, delErr))
		}
		return "", err
	}
	return url, nil
}

// baseType returns the accepted type m is or derives from, e.g. APNG counts as PNG.
func baseType(m *mimetype.MIME) string {
	for p := m; p != nil; p = p.Parent() {
		if _, ok := allowedTypes[p.String()]; ok {
			return p.String()
		}
	}
	return m.String()
}
