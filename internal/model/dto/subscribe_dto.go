package dto

// SubscriptionLinkResponse 订阅链接
type SubscriptionLinkResponse struct {
	Token string            `json:"token"`
	URLs  map[string]string `json:"urls"`
}
