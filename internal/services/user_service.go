package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	"github.com/yukikurage/learning-platform-api/internal/models"
	"github.com/yukikurage/learning-platform-api/internal/repository"
	"github.com/yukikurage/learning-platform-api/internal/storage"
	"github.com/yukikurage/learning-platform-api/internal/utils"
)

// ProfileInput holds the editable profile fields. Nil fields are left as they are.
type ProfileInput struct {
	NickName    *string
	RealName    *string
	PhoneNumber *string
}

type UserService struct {
	users repository.UserRepository
	blobs storage.BlobStore
	log   logrus.FieldLogger
}

func NewUserService(users repository.UserRepository, blobs storage.BlobStore, log logrus.FieldLogger) *UserService {
	return &UserService{
		users: users,
		blobs: blobs,
		log:   log,
	}
}

// GetProfile retrieves the caller's account.
func (s *UserService) GetProfile(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, "find user")
	}
	return user, nil
}

// UpdateProfile changes the caller's names. Nicknames stay unique.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint64, input ProfileInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.NickName != nil {
		nick := strings.TrimSpace(*input.NickName)
		if err := validName("nick_name", nick); err != nil {
			return nil, err
		}
		if nick != user.NickName {
			if existing, err := s.users.FindByNickName(ctx, nick); err == nil && existing.ID != user.ID {
				return nil, ErrNickNameTaken
			} else if err != nil && !isNotFound(err) {
				return nil, wrap(err, "check nickname")
			}
		}
		user.NickName = nick
	}
	if input.RealName != nil {
		realName := strings.TrimSpace(*input.RealName)
		if err := validName("real_name", realName); err != nil {
			return nil, err
		}
		user.RealName = realName
	}
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if err := validPhone(phone); err != nil {
			return nil, err
		}
		user.PhoneNumber = phone
	}

	if err := s.users.Update(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, ErrNickNameTaken
		}
		return nil, wrap(err, "update user")
	}
	return user, nil
}

// UploadProfileImage stores a new profile image and points the account at it.
// The previous image is removed from the blob store.
func (s *UserService) UploadProfileImage(ctx context.Context, userID uint64, upload Upload) (*models.User, error) {
	if s.blobs == nil {
		return nil, ErrStorageDisabled
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return nil, invalidField("file", "must be an image")
	}
	if len(upload.Data) == 0 || len(upload.Data) > constants.MaxUploadSize {
		return nil, invalidField("file", fmt.Sprintf("must be between 1 and %d bytes", constants.MaxUploadSize))
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	objectPath := utils.ObjectPath(fmt.Sprintf("%s/%d", constants.ProfileImageFolder, user.ID), upload.FileName)
	object, err := s.blobs.Upload(ctx, constants.UploadsBucket, objectPath, upload.Data, upload.ContentType)
	if err != nil {
		return nil, uploadError(err)
	}

	previous := user.ProfileImage
	user.ProfileImage = object.URL
	if err := s.users.Update(ctx, user); err != nil {
		return nil, wrap(err, "update profile image")
	}

	if previous != "" {
		if old := profileObjectPath(previous); old != "" {
			if err := s.blobs.Delete(ctx, constants.UploadsBucket, old); err != nil {
				s.log.WithError(err).WithField("path", old).Warn("Failed to remove previous profile image")
			}
		}
	}
	return user, nil
}

// profileObjectPath recovers the object path from a stored profile image URL.
func profileObjectPath(url string) string {
	idx := strings.Index(url, constants.ProfileImageFolder+"/")
	if idx < 0 {
		return ""
	}
	return url[idx:]
}

// validPhone accepts an empty number, which clears it.
func validPhone(phone string) error {
	if utf8.RuneCountInString(phone) > constants.MaxPhoneNumberLength {
		return invalidField("phone_number", fmt.Sprintf("must be at most %d characters", constants.MaxPhoneNumberLength))
	}
	return nil
}

func validName(field, name string) error {
	n := utf8.RuneCountInString(name)
	if n < constants.MinNameLength || n > constants.MaxNameLength {
		return invalidField(field, fmt.Sprintf("must be between %d and %d characters", constants.MinNameLength, constants.MaxNameLength))
	}
	return nil
}
