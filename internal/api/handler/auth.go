package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/spanel_go_server/internal/model/dto"
	"github.com/qs3c/spanel_go_server/internal/pkg/oauth"
	"github.com/qs3c/spanel_go_server/internal/pkg/response"
	"github.com/qs3c/spanel_go_server/internal/service"
)

// StateStore OAuth state 存储
type StateStore interface {
	GenerateState(ctx context.Context, redirectURI string) (string, error)
	ValidateState(ctx context.Context, state string) (string, error)
}

type AuthHandler struct {
	authService *service.AuthService
	states      StateStore
	frontendURL string
}

func NewAuthHandler(authService *service.AuthService, states StateStore, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		states:      states,
		frontendURL: frontendURL,
	}
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists), errors.Is(err, service.ErrUsernameExists):
			response.ConflictError(c, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "注册成功", resp)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.AuthError(c, err.Error())
			return
		}
		internalError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}

// GithubAuth 跳转到 GitHub 授权页
// GET /api/v1/auth/github
func (h *AuthHandler) GithubAuth(c *gin.Context) {
	if h.states == nil {
		response.ServerError(c, "GitHub 登录未启用")
		return
	}

	state, err := h.states.GenerateState(c.Request.Context(), h.frontendURL)
	if err != nil {
		internalError(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.authService.GetGithubAuthURL(state))
}

// GithubCallback GitHub 回调，登录成功后带着 token 跳回前端
// GET /api/v1/auth/github/callback
func (h *AuthHandler) GithubCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.ParamError(c, "缺少授权码")
		return
	}
	if h.states == nil {
		response.ServerError(c, "GitHub 登录未启用")
		return
	}

	redirectURI, err := h.states.ValidateState(c.Request.Context(), c.Query("state"))
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidState) {
			response.ParamError(c, "登录状态已失效，请重新登录")
			return
		}
		internalError(c, err)
		return
	}

	resp, err := h.authService.GithubCallback(c.Request.Context(), code)
	if err != nil {
		_ = c.Error(err)
		response.AuthError(c, "GitHub 登录失败")
		return
	}

	if redirectURI == "" {
		response.SuccessWithMessage(c, "登录成功", resp)
		return
	}

	target, err := url.Parse(redirectURI)
	if err != nil {
		internalError(c, err)
		return
	}
	target.Fragment = "token=" + url.QueryEscape(resp.Token)
	c.Redirect(http.StatusTemporaryRedirect, target.String())
}
