package handler

import (
	"staking-core/internal/handler/request"
	"staking-core/internal/handler/response"
	"staking-core/internal/model"
	"staking-core/internal/service"
	"staking-core/pkg/errno"
	"staking-core/pkg/validator"

	"github.com/gin-gonic/gin"
)

type StakeHandler struct {
	service service.Staking
}

func NewStakeHandler(s service.Staking) *StakeHandler {
	return &StakeHandler{service: s}
}

// Handle godoc
// @Summary Staking 操作入口
// @Description 接收 StakeIntent: stake/unstake 构建未签名交易, claim 以服务端查询的余额构建, info 返回余额快照
// @Tags Staking
// @Accept json
// @Produce json
// @Param request body request.StakeRequest true "Stake Intent"
// @Success 200 {object} model.BuildResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/stake [post]
func (h *StakeHandler) Handle(c *gin.Context) {
	// 1. 绑定参数
	var req request.StakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrInvalidRequest.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	// 2. 校验必填项 (operation 与 address 缺一不可)
	if req.Action == "" || req.Address == "" {
		response.Error(c, errno.ErrInvalidRequest)
		return
	}

	ctx := c.Request.Context()

	// 3. 按 action 分发
	switch req.Action {
	case model.OperationStake:
		resp, err := h.service.BuildStake(ctx, req.Address, req.Amount)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, resp)

	case model.OperationUnstake:
		resp, err := h.service.BuildUnstake(ctx, req.Address, req.Amount)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, resp)

	case model.OperationClaim:
		// 金额由服务端决定，忽略客户端传入的 amount
		resp, err := h.service.BuildClaim(ctx, req.Address)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, resp)

	case model.OperationInfo:
		resp, err := h.service.Info(ctx, req.Address)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, resp)

	default:
		response.Error(c, errno.ErrInvalidAction)
	}
}
