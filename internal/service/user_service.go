package service

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var (
	ErrInvalidMethod     = errors.New("不支持的加密方式")
	ErrOSSNotConfigured  = errors.New("OSS 客户端未配置")
	ErrAvatarTooLarge    = errors.New("头像文件不能超过 2MB")
	ErrAvatarInvalidType = errors.New("头像只支持 jpg/png/gif/webp")
)

const (
	MaxAvatarSize      = 2 << 20
	defaultTrafficDays = 30
	maxTrafficDays     = 90
)

// 用户可选的加密方式
var allowedMethods = map[string]bool{
	"aes-128-gcm":             true,
	"aes-192-gcm":             true,
	"aes-256-gcm":             true,
	"chacha20-ietf-poly1305":  true,
	"xchacha20-ietf-poly1305": true,
	"aes-128-cfb":             true,
	"aes-256-cfb":             true,
	"chacha20-ietf":           true,
	"rc4-md5":                 true,
}

var allowedAvatarExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// AvatarUploader 头像存储
type AvatarUploader interface {
	UploadAvatar(userID int64, data []byte, ext string) (string, error)
}

type UserService struct {
	userRepo    *repository.AccountRepository
	trafficRepo *repository.TrafficRepository
	uploader    AvatarUploader
	cfg         *config.Config
}

// NewUserService uploader 为 nil 时头像上传不可用
func NewUserService(userRepo *repository.AccountRepository, trafficRepo *repository.TrafficRepository, uploader AvatarUploader, cfg *config.Config) *UserService {
	return &UserService{
		userRepo:    userRepo,
		trafficRepo: trafficRepo,
		uploader:    uploader,
		cfg:         cfg,
	}
}

// GetAccount 读取用户
func (s *UserService) GetAccount(userID int64) (*model.Account, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetInfo 获取用户面板信息
func (s *UserService) GetInfo(userID int64) (*dto.AccountInfo, error) {
	user, err := s.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	return buildAccountInfo(user), nil
}

// UpdateProfile 更新用户名、加密方式
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.AccountInfo, error) {
	user, err := s.GetAccount(userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}

	// 检查用户名是否已被占用
	if req.Username != nil && *req.Username != user.Username {
		exists, err := s.userRepo.ExistsByUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrUsernameExists
		}
		user.Username = *req.Username
		fields["username"] = user.Username
	}

	if req.Method != nil && *req.Method != user.Method {
		if !allowedMethods[*req.Method] {
			return nil, ErrInvalidMethod
		}
		user.Method = *req.Method
		fields["method"] = user.Method
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(userID, fields); err != nil {
			return nil, err
		}
	}

	return buildAccountInfo(user), nil
}

// UploadAvatar 上传用户头像到 OSS
func (s *UserService) UploadAvatar(userID int64, file io.Reader, filename string, size int64) (string, error) {
	if s.uploader == nil {
		return "", ErrOSSNotConfigured
	}
	if size > MaxAvatarSize {
		return "", ErrAvatarTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedAvatarExts[ext] {
		return "", ErrAvatarInvalidType
	}

	// 多读 1 字节用于判断实际大小
	data, err := io.ReadAll(io.LimitReader(file, MaxAvatarSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxAvatarSize {
		return "", ErrAvatarTooLarge
	}

	avatarURL, err := s.uploader.UploadAvatar(userID, data, ext)
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"avatar_url": avatarURL}); err != nil {
		return "", err
	}

	return avatarURL, nil
}

// GetTraffic 最近 days 天的每日流量快照，days 超出 1..90 时使用默认值
func (s *UserService) GetTraffic(userID int64, days int) ([]dto.TrafficLogItem, error) {
	if days <= 0 || days > maxTrafficDays {
		days = defaultTrafficDays
	}

	since := time.Now().AddDate(0, 0, -days+1).Format(time.DateOnly)
	logs, err := s.trafficRepo.ListByUserSince(userID, since)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TrafficLogItem, 0, len(logs))
	for _, l := range logs {
		items = append(items, dto.TrafficLogItem{
			Date:     l.LogDate,
			Upload:   l.U,
			Download: l.D,
			Total:    l.U + l.D,
		})
	}
	return items, nil
}

func buildAccountInfo(user *model.Account) *dto.AccountInfo {
	info := &dto.AccountInfo{
		ID:               user.ID,
		Username:         user.Username,
		AvatarURL:        user.AvatarURL,
		IsAdmin:          user.IsAdmin,
		Money:            user.Money.StringFixed(2),
		Class:            user.Class,
		NodeGroup:        user.NodeGroup,
		TransferEnable:   user.TransferEnable,
		Upload:           user.U,
		Download:         user.D,
		UsedTraffic:      user.UsedTraffic(),
		RemainingTraffic: user.RemainingTraffic(),
		ExpireIn:         formatTime(user.ExpireIn),
		ClassExpire:      formatTime(user.ClassExpire),
		Port:             user.Port,
		Method:           user.Method,
		Protocol:         user.Protocol,
		Obfs:             user.Obfs,
		CreatedAt:        user.CreatedAt.Format(time.RFC3339),
	}

	if user.Email != nil {
		info.Email = *user.Email
	}

	return info
}
