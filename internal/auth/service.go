package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/marsesrobotics/dashboard/internal/logging"
	"github.com/marsesrobotics/dashboard/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("missing credentials")
)

// dummyPassword is hashed once so unknown emails still cost one verification.
const dummyPassword = "not-a-real-password-Xq7"

// Session is an issued session token together with the user it belongs to
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *user.User
}

// AvatarUpload is an optional profile picture submitted with the sign-up form
type AvatarUpload struct {
	Filename string
	Content  io.Reader
}

// Service handles authentication business logic
type Service struct {
	users         user.Repository
	passwords     PasswordHasher
	tokens        TokenService
	avatars       AvatarStore
	logger        *logging.Logger
	sessionTTL    time.Duration
	defaultAvatar string

	dummyOnce sync.Once
	dummyHash string
}

func NewService(
	users user.Repository,
	passwords PasswordHasher,
	tokens TokenService,
	avatars AvatarStore,
	logger *logging.Logger,
	sessionTTL time.Duration,
	defaultAvatar string,
) *Service {
	return &Service{
		users:         users,
		passwords:     passwords,
		tokens:        tokens,
		avatars:       avatars,
		logger:        logger,
		sessionTTL:    sessionTTL,
		defaultAvatar: defaultAvatar,
	}
}

// SessionTTL is the lifetime of tokens issued by this service
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Tokens exposes the token service used to issue sessions
func (s *Service) Tokens() TokenService {
	return s.tokens
}

// SignUp validates the form, stores the optional avatar and creates the user.
// The avatar is only stored once the email is known to be free.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest, avatar *AvatarUpload) (*user.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	picture := s.defaultAvatar
	if avatar != nil && s.avatars != nil {
		stored, err := s.avatars.StoreAvatar(ctx, avatar.Filename, avatar.Content)
		if err != nil {
			// A broken upload should not block account creation
			s.logger.Warn("failed to store avatar, using default", "email", req.Email, "error", err)
		} else {
			picture = stored
		}
	}

	newUser := &user.User{
		Email:          req.Email,
		PasswordHash:   passwordHash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfilePicture: picture,
	}

	if err := s.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// SignIn checks the credentials and issues a session.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Session, error) {
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.passwords.Verify(s.dummyPasswordHash(), req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.passwords.Verify(existingUser.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.IssueSession(existingUser)
}

// IssueSession creates a session token for u valid for the configured max age
func (s *Service) IssueSession(u *user.User) (*Session, error) {
	token, expiresAt, err := s.tokens.CreateToken(u.ID, u.Email, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      u,
	}, nil
}

// CurrentUser loads the user a verified session refers to
func (s *Service) CurrentUser(ctx context.Context, claims *TokenClaims) (*user.User, error) {
	if claims == nil || claims.UserID == "" {
		return nil, user.ErrNotFound
	}
	return s.users.GetByID(ctx, claims.UserID)
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
