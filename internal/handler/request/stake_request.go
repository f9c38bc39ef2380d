package request

// StakeRequest 是唯一 staking 端点的请求体。
// Action 不做 oneof 绑定校验，未知 action 要走业务层返回 "Invalid action"。
type StakeRequest struct {
	Action  string `json:"action"`
	Address string `json:"address" binding:"omitempty,eth_addr"`
	Amount  string `json:"amount"`
	Mode    string `json:"mode"`
}
