package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/render"
	"github.com/qs3c/spanel_go_server/internal/repository"
	"github.com/qs3c/spanel_go_server/internal/testutil"
)

type failingLister struct{}

func (failingLister) ListNodes(context.Context) ([]model.Node, error) {
	return nil, errors.New("database unavailable")
}

func setupSubscribeService(t *testing.T) (*SubscribeService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		Subscribe: config.SubscribeConfig{
			BaseURL:   "https://panel.example.com/",
			GroupName: "SPanel",
		},
	}
	nodes := NewNodeService(repository.NewNodeRepository(db), nil, logging.NewNop())

	svc := NewSubscribeService(
		db,
		repository.NewAccountRepository(db),
		repository.NewLinkRepository(db),
		nodes,
		cfg,
		logging.NewNop(),
	)
	return svc, db
}

func TestSubscribeService_GetLink_CreatesOnce(t *testing.T) {
	svc, db := setupSubscribeService(t)
	account := testutil.TestAccount(t, db)

	first, err := svc.GetLink(account.ID)
	require.NoError(t, err)
	assert.Len(t, first.Token, 32)
	assert.NotContains(t, first.Token, "-")

	second, err := svc.GetLink(account.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)

	assert.Equal(t, "https://panel.example.com/api/v1/subscribe/"+first.Token, first.URLs["ss"])
	assert.Equal(t, "https://panel.example.com/api/v1/subscribe/"+first.Token+"?target=clash", first.URLs["clash"])
	assert.Len(t, first.URLs, 7)
}

func TestSubscribeService_ResetLink(t *testing.T) {
	svc, db := setupSubscribeService(t)
	account := testutil.TestAccount(t, db)

	old, err := svc.GetLink(account.ID)
	require.NoError(t, err)

	reset, err := svc.ResetLink(account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, old.Token, reset.Token)

	_, err = svc.Render(context.Background(), old.Token, "")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	current, err := svc.GetLink(account.ID)
	require.NoError(t, err)
	assert.Equal(t, reset.Token, current.Token)
}

func TestSubscribeService_Render(t *testing.T) {
	svc, db := setupSubscribeService(t)
	account := testutil.TestAccount(t, db, testutil.WithClass(1, 0), testutil.WithTraffic(1000, 10, 20))
	testutil.TestNode(t, db, testutil.WithNodeAccess(0, 0, 0))
	testutil.TestNode(t, db, testutil.WithNodeAccess(5, 0, 0))

	link, err := svc.GetLink(account.ID)
	require.NoError(t, err)

	doc, err := svc.Render(context.Background(), link.Token, render.TargetSS)
	require.NoError(t, err)

	lines := strings.Split(string(doc.Body), "\n")
	assert.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "ss://"))
	assert.Equal(t, "upload=10; download=20; total=1000; expire=0", doc.Headers[render.HeaderUserInfo])
}

func TestSubscribeService_Render_Errors(t *testing.T) {
	svc, db := setupSubscribeService(t)

	_, err := svc.Render(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	_, err = svc.Render(context.Background(), "does-not-exist", "")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	expired := testutil.TestAccount(t, db, testutil.WithExpireIn(time.Now().Add(-time.Hour)))
	link, err := svc.GetLink(expired.ID)
	require.NoError(t, err)
	_, err = svc.Render(context.Background(), link.Token, "")
	assert.ErrorIs(t, err, ErrAccountExpired)

	// 链接存在但用户已删除
	require.NoError(t, repository.NewLinkRepository(db).Create(&model.SubscriptionLink{Token: "orphan", UserID: 99999}))
	_, err = svc.Render(context.Background(), "orphan", "")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestSubscribeService_Render_NodeFailure(t *testing.T) {
	svc, db := setupSubscribeService(t)
	svc.nodes = failingLister{}
	account := testutil.TestAccount(t, db)
	link, err := svc.GetLink(account.ID)
	require.NoError(t, err)

	_, err = svc.Render(context.Background(), link.Token, "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSubscriptionNotFound))
	assert.False(t, errors.Is(err, ErrAccountExpired))
}
