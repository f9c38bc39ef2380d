package main

import (
	"time"

	"staking-core/internal/server"
	"staking-core/internal/service"
	"staking-core/pkg/cache"
	"staking-core/pkg/config"
	"staking-core/pkg/logger"
	"staking-core/pkg/provider/cdp"
	"staking-core/pkg/validator"

	"go.uber.org/zap"
)

// @title Staking Gateway API
// @version 1.0
// @description Transaction builder for the Hoodi staking demo. Builds unsigned
// @description staking transactions via the external provider; signing stays client-side.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// 0. 初始化 Config
	config.Init()

	// 初始化 Validator
	validator.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 2. 初始化外部 Staking 服务商客户端
	// API 凭证缺失时直接失败，网关离开服务商无法工作
	provider, err := cdp.NewClient(
		config.Global.Provider.BaseURL,
		config.Global.Provider.Network,
		config.Global.Provider.Asset,
		config.Global.Provider.Mode,
		config.Global.Provider.APIKeyName,
		config.Global.Provider.APIPrivateKey,
	)
	if err != nil {
		logger.Fatal("初始化 Staking 服务商客户端失败 (检查 PROVIDER_API_KEY_NAME / PROVIDER_API_PRIVATE_KEY)", zap.Error(err))
	}
	logger.Info("Staking 服务商客户端就绪",
		zap.String("network", config.Global.Provider.Network),
		zap.String("mode", config.Global.Provider.Mode))

	// 3. 组装 Transaction Builder 服务
	// 余额查询走一层短 TTL 内存缓存，缓解服务商限流
	infoCache := cache.NewMemoryCache(time.Minute, 5*time.Minute)
	stakingService := service.NewStakingService(provider, infoCache)

	// 4. HTTP Router
	r := server.NewHTTPRouter(stakingService)

	// 5. 启动应用 (阻塞，收到信号后优雅退出)
	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, r)
	app.Run()
}
