package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	CodeSuccess             = 0
	CodeParamError          = 1000
	CodeAuthFailed          = 1001
	CodePermissionDenied    = 1002
	CodeResourceNotFound    = 1003
	CodeConflict            = 1005
	CodeInsufficientBalance = 1006
	CodeRateLimited         = 1007
	CodeAlreadyUsed         = 1008
	CodeServerError         = 5000
)

// 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:             "success",
	CodeParamError:          "参数错误",
	CodeAuthFailed:          "认证失败",
	CodePermissionDenied:    "权限不足",
	CodeResourceNotFound:    "资源不存在",
	CodeConflict:            "资源冲突",
	CodeInsufficientBalance: "余额不足",
	CodeRateLimited:         "请求过于频繁",
	CodeAlreadyUsed:         "已被使用",
	CodeServerError:         "服务器内部错误",
}

// 错误码对应的 HTTP 状态码
var codeStatus = map[int]int{
	CodeSuccess:             http.StatusOK,
	CodeParamError:          http.StatusBadRequest,
	CodeAuthFailed:          http.StatusUnauthorized,
	CodePermissionDenied:    http.StatusForbidden,
	CodeResourceNotFound:    http.StatusNotFound,
	CodeConflict:            http.StatusConflict,
	CodeInsufficientBalance: http.StatusBadRequest,
	CodeRateLimited:         http.StatusTooManyRequests,
	CodeAlreadyUsed:         http.StatusBadRequest,
	CodeServerError:         http.StatusInternalServerError,
}

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PageData 分页数据结构
type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

// HTTPStatus 错误码对应的 HTTP 状态码，未知错误码按 500 处理
func HTTPStatus(code int) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "success", data)
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	Success(c, PageData{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(HTTPStatus(code), Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ParamError 参数错误
func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

// AuthError 认证失败
func AuthError(c *gin.Context, message string) {
	Error(c, CodeAuthFailed, message)
}

// PermissionError 权限不足
func PermissionError(c *gin.Context, message string) {
	Error(c, CodePermissionDenied, message)
}

// NotFoundError 资源不存在
func NotFoundError(c *gin.Context, message string) {
	Error(c, CodeResourceNotFound, message)
}

// ConflictError 资源冲突（重复注册、充值码已使用等）
func ConflictError(c *gin.Context, message string) {
	Error(c, CodeConflict, message)
}

// BalanceError 余额不足
func BalanceError(c *gin.Context, message string) {
	Error(c, CodeInsufficientBalance, message)
}

// RateLimitError 频率限制
func RateLimitError(c *gin.Context, message string) {
	Error(c, CodeRateLimited, message)
}

// AlreadyUsedError 一次性资源已被消费
func AlreadyUsedError(c *gin.Context, message string) {
	Error(c, CodeAlreadyUsed, message)
}

// ServerError 服务器错误
func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

// PlainText 纯文本响应，订阅接口的客户端不认识 JSON 信封
func PlainText(c *gin.Context, status int, body string) {
	c.Data(status, "text/plain; charset=utf-8", []byte(body))
}
