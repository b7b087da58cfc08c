package dto

// ProductItem 商店商品
type ProductItem struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	Content         string `json:"content"`
	TrafficBytes    *int64 `json:"traffic_bytes,omitempty"`
	Class           *int   `json:"class,omitempty"`
	ExpireDays      *int   `json:"expire_days,omitempty"`
	ClassExpireDays *int   `json:"class_expire_days,omitempty"`
	AutoRenew       int    `json:"auto_renew"`
}

// PurchaseReceipt 购买回执
type PurchaseReceipt struct {
	PurchaseID     int64  `json:"purchase_id"`
	ProductID      int64  `json:"product_id"`
	Price          string `json:"price"`
	Balance        string `json:"balance"`
	TransferEnable int64  `json:"transfer_enable"`
	Class          int    `json:"class"`
	ExpireIn       string `json:"expire_in,omitempty"`
	ClassExpire    string `json:"class_expire,omitempty"`
}

// RedeemRequest 兑换请求
type RedeemRequest struct {
	Code string `json:"code" binding:"required,max=32"`
}

// RedeemReceipt 兑换回执
type RedeemReceipt struct {
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
}

// PurchaseItem 购买历史
type PurchaseItem struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	Renew       bool   `json:"renew"`
	CreatedAt   string `json:"created_at"`
}
