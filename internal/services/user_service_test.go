package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/learning-platform-api/internal/constants"
	apierrors "github.com/yukikurage/learning-platform-api/internal/errors"
	"github.com/yukikurage/learning-platform-api/internal/testutil"
)

func TestUpdateProfile(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, s.db, "me@example.com")
	other := testutil.CreateUser(t, s.db, "other@example.com")
	require.NoError(t, s.db.Model(other).Update("nick_name", "gopher").Error)

	taken := "gopher"
	_, err := s.users.UpdateProfile(ctx, user.ID, ProfileInput{NickName: &taken})
	assert.Equal(t, CodeNickNameTaken, apierrors.CodeOf(err))

	short := "a"
	_, err = s.users.UpdateProfile(ctx, user.ID, ProfileInput{RealName: &short})
	assert.Equal(t, apierrors.ErrCodeInvalidInput, apierrors.CodeOf(err))

	nick, realName := " rustacean ", "Ferris Crab"
	updated, err := s.users.UpdateProfile(ctx, user.ID, ProfileInput{NickName: &nick, RealName: &realName})
	require.NoError(t, err)
	assert.Equal(t, "rustacean", updated.NickName)
	assert.Equal(t, "Ferris Crab", updated.RealName)

	phone := " +81 90 0000 1111 "
	updated, err = s.users.UpdateProfile(ctx, user.ID, ProfileInput{PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, "+81 90 0000 1111", updated.PhoneNumber)
	assert.Equal(t, "rustacean", updated.NickName)

	long := strings.Repeat("9", constants.MaxPhoneNumberLength+1)
	_, err = s.users.UpdateProfile(ctx, user.ID, ProfileInput{PhoneNumber: &long})
	assert.Equal(t, apierrors.ErrCodeInvalidInput, apierrors.CodeOf(err))

	stored, err := s.users.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "+81 90 0000 1111", stored.PhoneNumber)

	_, err = s.users.GetProfile(ctx, user.ID+100)
	assert.Equal(t, CodeUserNotFound, apierrors.CodeOf(err))
}

func TestUploadProfileImage_ReplacesPrevious(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, s.db, "me@example.com")

	_, err := s.users.UploadProfileImage(ctx, user.ID, Upload{FileName: "notes.txt", ContentType: "text/plain", Data: []byte("x")})
	assert.Equal(t, apierrors.ErrCodeInvalidInput, apierrors.CodeOf(err))

	first, err := s.users.UploadProfileImage(ctx, user.ID, Upload{FileName: "me.png", ContentType: "image/png", Data: []byte("png1")})
	require.NoError(t, err)
	firstPath := profileObjectPath(first.ProfileImage)
	require.NotEmpty(t, firstPath)
	assert.True(t, strings.HasPrefix(firstPath, constants.ProfileImageFolder+"/"))
	assert.True(t, s.blobs.Has(constants.UploadsBucket, firstPath))

	second, err := s.users.UploadProfileImage(ctx, user.ID, Upload{FileName: "me2.png", ContentType: "image/png", Data: []byte("png2")})
	require.NoError(t, err)
	assert.NotEqual(t, first.ProfileImage, second.ProfileImage)
	assert.False(t, s.blobs.Has(constants.UploadsBucket, firstPath))
	assert.True(t, s.blobs.Has(constants.UploadsBucket, profileObjectPath(second.ProfileImage)))
}
