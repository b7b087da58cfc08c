package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/jwt"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/oauth"
	"github.com/qs3c/spanel_go_server/internal/pkg/password"
	"github.com/qs3c/spanel_go_server/internal/pkg/shopcontent"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrUsernameExists     = errors.New("用户名已被使用")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrNoFreePort         = errors.New("没有可分配的端口")
)

const (
	passwdLength     = 16
	portAllocRetries = 20
)

type AuthService struct {
	userRepo    *repository.AccountRepository
	cfg         *config.Config
	githubOAuth *oauth.GithubOAuth
	logger      logging.Logger
}

func NewAuthService(userRepo *repository.AccountRepository, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		githubOAuth: oauth.NewGithubOAuth(
			cfg.OAuth.Github.ClientID,
			cfg.OAuth.Github.ClientSecret,
			cfg.OAuth.Github.RedirectURI,
		),
		logger: logger,
	}
}

// Register 用户注册
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	// 检查邮箱是否存在
	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	// 检查用户名是否存在
	exists, err = s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	account, err := s.newAccount(req.Username)
	if err != nil {
		return nil, err
	}
	email := req.Email
	account.Email = &email
	account.PasswordHash = &hashed

	if err := s.userRepo.Create(account); err != nil {
		return nil, err
	}

	s.logger.Info(context.Background(), "account registered", "user_id", account.ID, "port", account.Port)

	return &dto.RegisterResponse{
		UserID: account.ID,
	}, nil
}

// Login 用户登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash, user.PasswordSalt) {
		return nil, ErrInvalidCredentials
	}

	// 旧哈希登录成功后升级为 bcrypt
	if !password.IsBcrypt(*user.PasswordHash) {
		if hashed, err := password.Hash(req.Password); err == nil {
			if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"pass": hashed, "salt": ""}); err != nil {
				s.logger.Warn(context.Background(), "failed to upgrade legacy password hash", "user_id", user.ID, "error", err)
			}
		}
	}

	return s.issueToken(user)
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(id int64) (*model.Account, error) {
	return s.userRepo.GetByID(id)
}

// GetGithubAuthURL 获取 GitHub 授权 URL
func (s *AuthService) GetGithubAuthURL(state string) string {
	return s.githubOAuth.GetAuthURL(state)
}

// GithubCallback 处理 GitHub OAuth 回调
func (s *AuthService) GithubCallback(ctx context.Context, code string) (*dto.LoginResponse, error) {
	// 用 code 换取 token
	token, err := s.githubOAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	// 获取 GitHub 用户信息
	githubUser, err := s.githubOAuth.GetUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get github user: %w", err)
	}

	user, err := s.findOrCreateGithubAccount(githubUser)
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

func (s *AuthService) findOrCreateGithubAccount(githubUser *oauth.GithubUser) (*model.Account, error) {
	githubIDStr := githubUser.IDString()

	user, err := s.userRepo.GetByGithubID(githubIDStr)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 邮箱已注册则绑定到已有账户
	if githubUser.Email != "" {
		user, err = s.userRepo.GetByEmail(githubUser.Email)
		if err == nil {
			if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"github_id": githubIDStr}); err != nil {
				return nil, err
			}
			user.GithubID = &githubIDStr
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	user, err = s.newAccount(githubUser.DisplayName())
	if err != nil {
		return nil, err
	}
	user.GithubID = &githubIDStr
	user.AvatarURL = githubUser.AvatarURL
	if githubUser.Email != "" {
		email := githubUser.Email
		user.Email = &email
	}

	// 确保用户名唯一
	exists, _ := s.userRepo.ExistsByUsername(user.Username)
	if exists {
		user.Username = fmt.Sprintf("%s_%s", githubUser.DisplayName(), githubIDStr)
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// newAccount 按注册默认值构造新账户（未落库）
func (s *AuthService) newAccount(username string) (*model.Account, error) {
	reg := s.cfg.Register

	port, err := s.allocatePort()
	if err != nil {
		return nil, err
	}

	passwd, err := password.RandomString(passwdLength)
	if err != nil {
		return nil, err
	}

	money := decimal.Zero
	if reg.DefaultMoney != "" {
		if m, err := decimal.NewFromString(reg.DefaultMoney); err == nil && !m.IsNegative() {
			money = m
		}
	}

	return &model.Account{
		Username:       username,
		Money:          money,
		Class:          reg.DefaultClass,
		TransferEnable: reg.DefaultTrafficGB * shopcontent.GiB,
		Port:           port,
		Passwd:         passwd,
		Method:         reg.DefaultMethod,
		Protocol:       reg.DefaultProtocol,
		Obfs:           reg.DefaultObfs,
	}, nil
}

// allocatePort 在配置范围内随机选择一个未被占用的端口
func (s *AuthService) allocatePort() (int, error) {
	lo, hi := s.cfg.Register.PortMin, s.cfg.Register.PortMax
	if lo <= 0 || hi < lo {
		lo, hi = 11111, 55555
	}

	span := big.NewInt(int64(hi - lo + 1))
	for i := 0; i < portAllocRetries; i++ {
		n, err := rand.Int(rand.Reader, span)
		if err != nil {
			return 0, err
		}
		port := lo + int(n.Int64())

		exists, err := s.userRepo.ExistsByPort(port)
		if err != nil {
			return 0, err
		}
		if !exists {
			return port, nil
		}
	}
	return 0, ErrNoFreePort
}

func (s *AuthService) issueToken(user *model.Account) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(user.ID, user.IsAdmin, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  buildUserInfo(user),
	}, nil
}

func buildUserInfo(user *model.Account) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		IsAdmin:   user.IsAdmin,
	}

	if user.Email != nil {
		info.Email = *user.Email
	}

	return info
}
