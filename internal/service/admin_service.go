package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/jwt"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/pubsub"
	"github.com/qs3c/spanel_go_server/internal/pkg/shopcontent"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var (
	ErrForbidden     = errors.New("需要管理员权限")
	ErrInvalidCount  = errors.New("生成数量必须在 1 到 1000 之间")
	ErrCodeCollision = errors.New("充值码生成冲突，请重试")
	ErrInvalidPrice  = errors.New("价格不能为负数")
)

const (
	codeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength    = 16
	codeGroupSize = 4
	maxCodeBatch  = 1000
)

// RequireAdmin 校验 token 中的管理员标记
func RequireAdmin(claims *jwt.Claims) error {
	if claims == nil || !claims.IsAdmin {
		return ErrForbidden
	}
	return nil
}

type AdminService struct {
	db          *gorm.DB
	accountRepo *repository.AccountRepository
	codeRepo    *repository.CodeRepository
	productRepo *repository.ProductRepository
	ledger      *Ledger
	publisher   EventPublisher
	logger      logging.Logger
}

func NewAdminService(
	db *gorm.DB,
	accountRepo *repository.AccountRepository,
	codeRepo *repository.CodeRepository,
	productRepo *repository.ProductRepository,
	ledger *Ledger,
	logger logging.Logger,
) *AdminService {
	return &AdminService{
		db:          db,
		accountRepo: accountRepo,
		codeRepo:    codeRepo,
		productRepo: productRepo,
		ledger:      ledger,
		logger:      logger,
	}
}

// SetPublisher 设置余额事件发布者
func (s *AdminService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

// GenerateCodes 批量生成充值码
func (s *AdminService) GenerateCodes(ctx context.Context, req *dto.GenerateCodesRequest) (*dto.GenerateCodesResponse, error) {
	if req.Count < 1 || req.Count > maxCodeBatch {
		return nil, ErrInvalidCount
	}
	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, req.Count)
	codes := make([]model.RedemptionCode, 0, req.Count)
	values := make([]string, 0, req.Count)
	for len(codes) < req.Count {
		code, err := GenerateRedemptionCode()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, model.RedemptionCode{Code: code, Amount: amount})
		values = append(values, code)
	}

	inserted, err := s.codeRepo.CreateBatch(codes)
	if err != nil {
		return nil, fmt.Errorf("insert codes: %w", err)
	}
	if inserted != int64(len(codes)) {
		return nil, ErrCodeCollision
	}

	s.logger.Info(ctx, "redemption codes generated", "count", len(values), "amount", amount.StringFixed(2))

	return &dto.GenerateCodesResponse{
		Codes:  values,
		Amount: amount.StringFixed(2),
	}, nil
}

// ListCodes 分页查询充值码
func (s *AdminService) ListCodes(used *bool, page, pageSize int) ([]dto.CodeItem, int64, error) {
	codes, total, err := s.codeRepo.List(used, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]dto.CodeItem, 0, len(codes))
	for _, c := range codes {
		items = append(items, dto.CodeItem{
			ID:        c.ID,
			Code:      c.Code,
			Amount:    c.Amount.StringFixed(2),
			IsUsed:    c.IsUsed,
			UserID:    c.UserID,
			UsedAt:    formatTime(c.UsedAt),
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, total, nil
}

// Credit 管理员给用户加款
func (s *AdminService) Credit(ctx context.Context, userID int64, amountStr string) (*dto.CreditResponse, error) {
	amount, err := parsePositiveAmount(amountStr)
	if err != nil {
		return nil, err
	}

	var balance decimal.Decimal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ledger.Credit(tx, userID, amount); err != nil {
			return err
		}
		account, err := s.accountRepo.WithTx(tx).GetByID(userID)
		if err != nil {
			return err
		}
		balance = account.Money
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "admin credit", "user_id", userID, "amount", amount.StringFixed(2))

	if s.publisher != nil {
		evt := &pubsub.BalanceEvent{
			UserID:     userID,
			Event:      pubsub.EventCredit,
			Amount:     amount.StringFixed(2),
			NewBalance: balance.StringFixed(2),
		}
		if err := s.publisher.PublishBalance(ctx, evt); err != nil {
			s.logger.Warn(ctx, "failed to publish balance event", "user_id", userID, "error", err)
		}
	}

	return &dto.CreditResponse{
		UserID:  userID,
		Balance: balance.StringFixed(2),
	}, nil
}

// CreateProduct 新增商品，content 必须能被解析
func (s *AdminService) CreateProduct(req *dto.SaveProductRequest) (*dto.ProductItem, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return nil, ErrInvalidAmount
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	effects, err := shopcontent.Parse(req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProductContent, err)
	}

	status := model.ProductStatusActive
	if req.Status != nil {
		status = *req.Status
	}
	product := &model.Product{
		Name:      req.Name,
		Price:     price.Round(2),
		Content:   req.Content,
		AutoRenew: req.AutoRenew,
		Status:    status,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	return &dto.ProductItem{
		ID:              product.ID,
		Name:            product.Name,
		Price:           product.Price.StringFixed(2),
		Content:         product.Content,
		TrafficBytes:    effects.TrafficBytes,
		Class:           effects.Class,
		ExpireDays:      effects.ExpireDays,
		ClassExpireDays: effects.ClassExpireDays,
		AutoRenew:       product.AutoRenew,
	}, nil
}

// GenerateRedemptionCode 生成形如 ABCD-EFGH-JKLM-NPQR 的充值码
func GenerateRedemptionCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))

	var sb strings.Builder
	sb.Grow(codeLength + codeLength/codeGroupSize)
	for i := 0; i < codeLength; i++ {
		if i > 0 && i%codeGroupSize == 0 {
			sb.WriteByte('-')
		}
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

func parsePositiveAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount.Round(2), nil
}
