package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/api/middleware"
	"github.com/qs3c/spanel_go_server/internal/pkg/jwt"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/pkg/response"
	"github.com/qs3c/spanel_go_server/internal/repository"
	"github.com/qs3c/spanel_go_server/internal/service"
	"github.com/qs3c/spanel_go_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key"

// testEnv 所有 service 共用一个测试库
type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	auth      *service.AuthService
	users     *service.UserService
	nodes     *service.NodeService
	billing   *service.BillingService
	subscribe *service.SubscribeService
	admin     *service.AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: testJWTSecret, ExpireHours: 24},
		Register: config.RegisterConfig{
			DefaultTrafficGB: 10,
			DefaultMethod:    "chacha20-ietf-poly1305",
			DefaultProtocol:  "origin",
			DefaultObfs:      "plain",
			PortMin:          11111,
			PortMax:          55555,
		},
		OAuth: config.OAuthConfig{
			Github: config.GithubOAuthConfig{
				ClientID:     "test-client-id",
				ClientSecret: "test-client-secret",
				RedirectURI:  "http://localhost:8080/api/v1/auth/github/callback",
			},
		},
		Subscribe: config.SubscribeConfig{BaseURL: "https://panel.example.com", GroupName: "SPanel"},
		Redeem:    config.RedeemConfig{HourlyLimit: 10},
	}
	logger := logging.NewNop()

	accountRepo := repository.NewAccountRepository(db)
	codeRepo := repository.NewCodeRepository(db)
	productRepo := repository.NewProductRepository(db)
	ledger := service.NewLedger(accountRepo)
	nodes := service.NewNodeService(repository.NewNodeRepository(db), nil, logger)

	return &testEnv{
		db:    db,
		cfg:   cfg,
		auth:  service.NewAuthService(accountRepo, cfg, logger),
		users: service.NewUserService(accountRepo, repository.NewTrafficRepository(db), nil, cfg),
		nodes: nodes,
		billing: service.NewBillingService(db, accountRepo, productRepo, codeRepo,
			repository.NewPurchaseRepository(db), ledger, cfg, logger),
		subscribe: service.NewSubscribeService(db, accountRepo, repository.NewLinkRepository(db), nodes, cfg, logger),
		admin:     service.NewAdminService(db, accountRepo, codeRepo, productRepo, ledger, logger),
	}
}

// mockAuth 跳过 JWT 校验直接注入用户
func mockAuth(userID int64, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.ClaimsKey, &jwt.Claims{UserID: userID, IsAdmin: isAdmin})
		c.Next()
	}
}

func newJSONRequest(method, path string, body interface{}) *http.Request {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	return serve(r, newJSONRequest(method, path, body))
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// decodeData 把响应 data 解到具体结构
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var resp struct {
		Code int             `json:"code"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, response.CodeSuccess, resp.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}
