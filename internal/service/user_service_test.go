package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/repository"
	"github.com/qs3c/spanel_go_server/internal/testutil"
)

type fakeUploader struct {
	ext  string
	size int
	err  error
}

func (f *fakeUploader) UploadAvatar(userID int64, data []byte, ext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.ext = ext
	f.size = len(data)
	return "https://cdn.example.com/avatars/1" + ext, nil
}

func setupUserService(t *testing.T, uploader AvatarUploader) (*UserService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	service := NewUserService(
		repository.NewAccountRepository(db),
		repository.NewTrafficRepository(db),
		uploader,
		&config.Config{},
	)
	return service, db
}

func TestUserService_GetInfo_Success(t *testing.T) {
	service, db := setupUserService(t, nil)
	expire := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	user := testutil.TestAccount(t, db,
		testutil.WithMoney("12.5"),
		testutil.WithTraffic(1000, 300, 200),
		testutil.WithClass(2, 1),
		testutil.WithExpireIn(expire),
	)

	info, err := service.GetInfo(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.ID)
	assert.Equal(t, "12.50", info.Money)
	assert.Equal(t, int64(500), info.UsedTraffic)
	assert.Equal(t, int64(500), info.RemainingTraffic)
	assert.Equal(t, 2, info.Class)
	assert.NotEmpty(t, info.ExpireIn)
	assert.NotEmpty(t, info.Email)
}

func TestUserService_GetInfo_NotFound(t *testing.T) {
	service, _ := setupUserService(t, nil)

	_, err := service.GetInfo(99999)
	assert.Equal(t, ErrUserNotFound, err)
}

func TestUserService_UpdateProfile_Success(t *testing.T) {
	service, db := setupUserService(t, nil)
	user := testutil.TestAccount(t, db)

	newUsername := "newname"
	method := "chacha20-ietf-poly1305"
	info, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{
		Username: &newUsername,
		Method:   &method,
	})
	require.NoError(t, err)
	assert.Equal(t, "newname", info.Username)
	assert.Equal(t, method, info.Method)

	var stored model.Account
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, "newname", stored.Username)
	assert.Equal(t, method, stored.Method)
}

func TestUserService_UpdateProfile_UsernameTaken(t *testing.T) {
	service, db := setupUserService(t, nil)
	user := testutil.TestAccount(t, db)
	other := testutil.TestAccount(t, db)

	_, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Username: &other.Username})
	assert.Equal(t, ErrUsernameExists, err)
}

func TestUserService_UpdateProfile_InvalidMethod(t *testing.T) {
	service, db := setupUserService(t, nil)
	user := testutil.TestAccount(t, db)

	method := "rot13"
	_, err := service.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Method: &method})
	assert.Equal(t, ErrInvalidMethod, err)
}

func TestUserService_UploadAvatar(t *testing.T) {
	uploader := &fakeUploader{}
	service, db := setupUserService(t, uploader)
	user := testutil.TestAccount(t, db)

	url, err := service.UploadAvatar(user.ID, bytes.NewReader([]byte("png-bytes")), "me.PNG", 9)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/1.png", url)
	assert.Equal(t, ".png", uploader.ext)
	assert.Equal(t, 9, uploader.size)

	var stored model.Account
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, url, stored.AvatarURL)
}

func TestUserService_UploadAvatar_Rejects(t *testing.T) {
	service, db := setupUserService(t, &fakeUploader{})
	user := testutil.TestAccount(t, db)

	_, err := service.UploadAvatar(user.ID, strings.NewReader("x"), "evil.exe", 1)
	assert.Equal(t, ErrAvatarInvalidType, err)

	_, err = service.UploadAvatar(user.ID, strings.NewReader("x"), "big.jpg", MaxAvatarSize+1)
	assert.Equal(t, ErrAvatarTooLarge, err)

	// 声明大小与实际内容不符
	big := bytes.Repeat([]byte{0}, MaxAvatarSize+10)
	_, err = service.UploadAvatar(user.ID, bytes.NewReader(big), "big.jpg", 10)
	assert.Equal(t, ErrAvatarTooLarge, err)
}

func TestUserService_UploadAvatar_NotConfigured(t *testing.T) {
	service, db := setupUserService(t, nil)
	user := testutil.TestAccount(t, db)

	_, err := service.UploadAvatar(user.ID, strings.NewReader("x"), "a.jpg", 1)
	assert.Equal(t, ErrOSSNotConfigured, err)
}

func TestUserService_UploadAvatar_UploadError(t *testing.T) {
	service, db := setupUserService(t, &fakeUploader{err: errors.New("oss down")})
	user := testutil.TestAccount(t, db)

	_, err := service.UploadAvatar(user.ID, strings.NewReader("x"), "a.jpg", 1)
	assert.Error(t, err)
}

func TestUserService_GetTraffic(t *testing.T) {
	service, db := setupUserService(t, nil)
	user := testutil.TestAccount(t, db)
	repo := repository.NewTrafficRepository(db)

	today := time.Now()
	require.NoError(t, repo.UpsertSnapshots([]model.TrafficLog{
		{UserID: user.ID, LogDate: today.AddDate(0, 0, -40).Format(time.DateOnly), U: 1, D: 1},
		{UserID: user.ID, LogDate: today.AddDate(0, 0, -3).Format(time.DateOnly), U: 10, D: 20},
		{UserID: user.ID, LogDate: today.Format(time.DateOnly), U: 5, D: 5},
	}))

	items, err := service.GetTraffic(user.ID, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(30), items[0].Total)

	items, err = service.GetTraffic(user.ID, 90)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	items, err = service.GetTraffic(user.ID, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
