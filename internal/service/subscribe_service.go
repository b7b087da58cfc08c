package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/render"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrAccountExpired       = errors.New("account expired")
)

const subscribePath = "/api/v1/subscribe/"

// 链接页展示的订阅目标，ss 为默认不带 target 参数
var linkTargets = []string{
	render.TargetSSR,
	render.TargetV2Ray,
	render.TargetVMess,
	render.TargetTrojan,
	render.TargetClash,
	render.TargetSurge,
}

type SubscribeService struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
	linkRepo    *repository.LinkRepository
	nodes       NodeLister
	cfg         *config.Config
	logger      logging.Logger
}

func NewSubscribeService(
	db *gorm.DB,
	accountRepo *repository.AccountRepository,
	linkRepo *repository.LinkRepository,
	nodes NodeLister,
	cfg *config.Config,
	logger logging.Logger,
) *SubscribeService {
	return &SubscribeService{
		db:          db,
		accountRepo: accountRepo,
		linkRepo:    linkRepo,
		nodes:       nodes,
		cfg:         cfg,
		logger:      logger,
	}
}

// GetLink 获取订阅链接，没有时创建
func (s *SubscribeService) GetLink(userID int64) (*dto.SubscriptionLinkResponse, error) {
	link, err := s.linkRepo.GetByUserID(userID)
	if err == nil {
		return s.buildLinkResponse(link.Token), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	link = &model.SubscriptionLink{Token: newLinkToken(), UserID: userID}
	if err := s.linkRepo.Create(link); err != nil {
		// 并发创建时以已存在的为准
		if existing, getErr := s.linkRepo.GetByUserID(userID); getErr == nil {
			return s.buildLinkResponse(existing.Token), nil
		}
		return nil, err
	}
	return s.buildLinkResponse(link.Token), nil
}

// ResetLink 作废旧 token 并生成新 token
func (s *SubscribeService) ResetLink(userID int64) (*dto.SubscriptionLinkResponse, error) {
	token := newLinkToken()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.linkRepo.WithTx(tx)
		if err := repo.DeleteByUserID(userID); err != nil {
			return err
		}
		return repo.Create(&model.SubscriptionLink{Token: token, UserID: userID})
	})
	if err != nil {
		return nil, fmt.Errorf("reset link: %w", err)
	}
	return s.buildLinkResponse(token), nil
}

// Render 按订阅 token 渲染订阅内容
func (s *SubscribeService) Render(ctx context.Context, token, target string) (*render.Document, error) {
	if token == "" {
		return nil, ErrSubscriptionNotFound
	}

	link, err := s.linkRepo.GetByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get link: %w", err)
	}

	account, err := s.accountRepo.GetByID(link.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if account.IsExpired(time.Now()) {
		return nil, ErrAccountExpired
	}

	nodes, err := s.nodes.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	return render.Render(account, EligibleNodes(account, nodes), target, s.cfg.Subscribe.GroupName)
}

func (s *SubscribeService) buildLinkResponse(token string) *dto.SubscriptionLinkResponse {
	base := strings.TrimRight(s.cfg.Subscribe.BaseURL, "/") + subscribePath + token

	urls := make(map[string]string, len(linkTargets)+1)
	urls[render.TargetSS] = base
	for _, t := range linkTargets {
		urls[t] = base + "?target=" + t
	}

	return &dto.SubscriptionLinkResponse{
		Token: token,
		URLs:  urls,
	}
}

// newLinkToken 32 位十六进制
func newLinkToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
