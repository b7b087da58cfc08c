package dto

// GenerateCodesRequest 批量生成充值码
type GenerateCodesRequest struct {
	Count  int    `json:"count" binding:"required,min=1,max=1000"`
	Amount string `json:"amount" binding:"required"`
}

// GenerateCodesResponse 生成结果
type GenerateCodesResponse struct {
	Codes  []string `json:"codes"`
	Amount string   `json:"amount"`
}

// CodeItem 充值码
type CodeItem struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Amount    string `json:"amount"`
	IsUsed    bool   `json:"is_used"`
	UserID    *int64 `json:"user_id,omitempty"`
	UsedAt    string `json:"used_at,omitempty"`
	CreatedAt string `json:"created_at"`
}

// CreditRequest 管理员加款
type CreditRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// CreditResponse 加款结果
type CreditResponse struct {
	UserID  int64  `json:"user_id"`
	Balance string `json:"balance"`
}

// SaveNodeRequest 新增/修改节点
type SaveNodeRequest struct {
	Name        string   `json:"name" binding:"required,max=128"`
	Server      string   `json:"server" binding:"required,max=255"`
	Port        int      `json:"port" binding:"required,min=1,max=65535"`
	Method      string   `json:"method" binding:"max=64"`
	Type        int      `json:"type" binding:"required,oneof=1 2 11 14"`
	NodeClass   int      `json:"node_class" binding:"min=0"`
	NodeGroup   int      `json:"node_group" binding:"min=0"`
	TrafficRate *float64 `json:"traffic_rate,omitempty" binding:"omitempty,min=0"`
	Sort        int      `json:"sort"`
	Info        string   `json:"info" binding:"max=255"`
	NodeKey     string   `json:"node_key" binding:"max=64"`
}

// SaveProductRequest 新增商品
type SaveProductRequest struct {
	Name      string `json:"name" binding:"required,max=128"`
	Price     string `json:"price" binding:"required"`
	Content   string `json:"content" binding:"required"`
	AutoRenew int    `json:"auto_renew" binding:"min=0"`
	Status    *int   `json:"status,omitempty" binding:"omitempty,oneof=0 1"`
}

// HeartbeatRequest 节点心跳
type HeartbeatRequest struct {
	NodeID      int64  `json:"node_id" binding:"required"`
	Load        string `json:"load" binding:"max=64"`
	OnlineUsers int    `json:"online_users" binding:"min=0"`
}
