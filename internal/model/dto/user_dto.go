package dto

// AccountInfo 用户面板信息
type AccountInfo struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email,omitempty"`
	AvatarURL        string `json:"avatar_url"`
	IsAdmin          bool   `json:"is_admin"`
	Money            string `json:"money"`
	Class            int    `json:"class"`
	NodeGroup        int    `json:"node_group"`
	TransferEnable   int64  `json:"transfer_enable"`
	Upload           int64  `json:"u"`
	Download         int64  `json:"d"`
	UsedTraffic      int64  `json:"used_traffic"`
	RemainingTraffic int64  `json:"remaining_traffic"`
	ExpireIn         string `json:"expire_in,omitempty"`
	ClassExpire      string `json:"class_expire,omitempty"`
	Port             int    `json:"port"`
	Method           string `json:"method"`
	Protocol         string `json:"protocol"`
	Obfs             string `json:"obfs"`
	CreatedAt        string `json:"created_at"`
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	Method   *string `json:"method,omitempty" binding:"omitempty,max=64"`
}

// TrafficLogItem 每日流量
type TrafficLogItem struct {
	Date     string `json:"date"`
	Upload   int64  `json:"u"`
	Download int64  `json:"d"`
	Total    int64  `json:"total"`
}

// NodeItem 用户可见节点（不含凭据）
type NodeItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Server      string  `json:"server"`
	Port        int     `json:"port"`
	NodeClass   int     `json:"node_class"`
	TrafficRate float64 `json:"traffic_rate"`
	Info        string  `json:"info"`
	Online      bool    `json:"online"`
	OnlineUsers int     `json:"online_users"`
	Load        string  `json:"load"`
}
