package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Provider     ProviderConfig     `mapstructure:"provider"`
	Chain        ChainConfig        `mapstructure:"chain"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Wallet       WalletConfig       `mapstructure:"wallet"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

// ProviderConfig 外部 Staking 服务商 (CDP 风格 REST API) 的接入配置
type ProviderConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKeyName    string `mapstructure:"api_key_name"`
	APIPrivateKey string `mapstructure:"api_private_key"` // PEM, 通常通过环境变量 PROVIDER_API_PRIVATE_KEY 传入
	Network       string `mapstructure:"network"`
	Asset         string `mapstructure:"asset"`
	Mode          string `mapstructure:"mode"`
}

// ChainConfig 目标链配置 (单链: Hoodi 测试网)
type ChainConfig struct {
	ID          int64  `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	RpcUrl      string `mapstructure:"rpc_url"`
	ExplorerUrl string `mapstructure:"explorer_url"`
}

// OrchestratorConfig 客户端签名工作流配置
// 两个延迟原先是源码里的魔法常量，这里抽成可配置项
type OrchestratorConfig struct {
	ServerURL      string `mapstructure:"server_url"`
	SwitchSettleMs int    `mapstructure:"switch_settle_ms"` // 链切换后的等待时间
	RefreshDelayMs int    `mapstructure:"refresh_delay_ms"` // 发送成功后刷新余额的等待时间
}

// SwitchSettle returns the chain-switch settling delay as a Duration.
func (c OrchestratorConfig) SwitchSettle() time.Duration {
	return time.Duration(c.SwitchSettleMs) * time.Millisecond
}

// RefreshDelay returns the post-send refresh delay as a Duration.
func (c OrchestratorConfig) RefreshDelay() time.Duration {
	return time.Duration(c.RefreshDelayMs) * time.Millisecond
}

type WalletConfig struct {
	KeystorePath string `mapstructure:"keystore_path"`
	Password     string `mapstructure:"password"` // 通常通过环境变量 WALLET_PASSWORD 传入
	Mnemonic     string `mapstructure:"mnemonic"` // 仅限开发环境的明文兜底
}

var Global Config

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath(".")      // optionally look for config in the working directory
	viper.AddConfigPath("./config")

	// 环境变量设置
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error if desired
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			// Config file was found but another error was produced
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("provider.base_url", "https://api.cdp.coinbase.com")
	viper.SetDefault("provider.network", "ethereum-hoodi")
	viper.SetDefault("provider.asset", "eth")
	viper.SetDefault("provider.mode", "partial")

	// Hoodi 测试网
	viper.SetDefault("chain.id", 560048)
	viper.SetDefault("chain.name", "Hoodi")
	viper.SetDefault("chain.rpc_url", "https://rpc.hoodi.ethpandaops.io")
	viper.SetDefault("chain.explorer_url", "https://hoodi.etherscan.io")

	viper.SetDefault("orchestrator.server_url", "http://localhost:8080")
	viper.SetDefault("orchestrator.switch_settle_ms", 1000)
	viper.SetDefault("orchestrator.refresh_delay_ms", 5000)

	viper.SetDefault("wallet.keystore_path", "wallet.json")
}
