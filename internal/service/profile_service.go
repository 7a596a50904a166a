package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"
	"gym360/backend/internal/storage"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const avatarPrefix = "avatars"

// avatarExtensions is the set of accepted avatar content types and the
// object key extension each one is stored under.
var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// UploadURLResponse is a presigned PUT URL and the key to confirm afterwards.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// Profile is the caller's account with a short-lived avatar URL, if any.
type Profile struct {
	User      *domain.User
	AvatarURL string
}

// ProfileService manages the authenticated user's own account.
type ProfileService interface {
	Me(ctx context.Context, userID primitive.ObjectID) (*Profile, error)
	UpdateName(ctx context.Context, userID primitive.ObjectID, name string) (*Profile, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error
	RequestAvatarUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmAvatar(ctx context.Context, userID primitive.ObjectID, objectKey string) (*Profile, error)
}

type profileService struct {
	users   repository.UserRepository
	storage storage.FileStorage
	logger  *log.Logger
}

func NewProfileService(users repository.UserRepository, fileStorage storage.FileStorage, logger *log.Logger) ProfileService {
	return &profileService{
		users:   users,
		storage: fileStorage,
		logger:  logger.WithPrefix("profile"),
	}
}

func (s *profileService) Me(ctx context.Context, userID primitive.ObjectID) (*Profile, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user), nil
}

// profile attaches a download URL. A presign failure only drops the URL.
func (s *profileService) profile(ctx context.Context, user *domain.User) *Profile {
	p := &Profile{User: user}
	if user.ImageKey == "" {
		return p
	}
	url, err := s.storage.GeneratePresignedDownloadURL(ctx, user.ImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.logger.Warn("avatar url unavailable", "userId", user.ID.Hex(), "err", err)
		return p
	}
	p.AvatarURL = url
	return p
}

func (s *profileService) UpdateName(ctx context.Context, userID primitive.ObjectID, name string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if err := s.users.UpdateProfile(ctx, userID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("user")
		}
		return nil, storeErr("update profile", err)
	}
	return s.Me(ctx, userID)
}

func (s *profileService) ChangePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	if len(next) < minPasswordLength {
		return invalid("newPassword", "must be at least 8 characters")
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return invalid("currentPassword", "is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hashed)); err != nil {
		return storeErr("update password", err)
	}
	s.logger.Info("password changed", "userId", userID.Hex())
	return nil
}

func (s *profileService) RequestAvatarUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, invalid("contentType", "must be one of image/png, image/jpeg, image/webp, image/gif")
	}

	objectKey := path.Join(avatarPrefix, userID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), ext))
	if !ownsAvatarKey(userID, objectKey) {
		return nil, invalid("contentType", "does not produce a key for this user")
	}

	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, storeErr("presign avatar upload", err)
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmAvatar records an uploaded key as the user's avatar and removes
// the previous object. Keys outside the user's own prefix are rejected.
func (s *profileService) ConfirmAvatar(ctx context.Context, userID primitive.ObjectID, objectKey string) (*Profile, error) {
	objectKey = strings.TrimSpace(objectKey)
	if !ownsAvatarKey(userID, objectKey) {
		return nil, invalid("objectKey", "does not belong to this user")
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.ImageKey

	if err := s.users.SetImageKey(ctx, userID, objectKey); err != nil {
		return nil, storeErr("set avatar", err)
	}
	user.ImageKey = objectKey

	if previous != "" && previous != objectKey {
		if err := s.storage.DeleteObject(ctx, previous); err != nil {
			s.logger.Warn("previous avatar not deleted", "key", previous, "err", err)
		}
	}
	return s.profile(ctx, user), nil
}

// ownsAvatarKey reports whether key is a clean object key directly under
// the user's avatar prefix.
func ownsAvatarKey(userID primitive.ObjectID, key string) bool {
	prefix := path.Join(avatarPrefix, userID.Hex()) + "/"
	return path.Clean(key) == key && strings.HasPrefix(key, prefix) && !strings.Contains(key[len(prefix):], "/")
}

func (s *profileService) load(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("user")
		}
		return nil, storeErr("load user", err)
	}
	return user, nil
}
