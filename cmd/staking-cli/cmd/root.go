package cmd

import (
	"fmt"
	"os"

	"staking-core/pkg/config"

	"github.com/spf13/cobra"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "staking-cli",
	Short: "Hoodi 测试网 Staking 命令行客户端",
	Long: `自托管签名的 staking 客户端。
通过 staking-server 网关构建未签名交易，用本地 Keystore 派生的私钥签名，
再经 RPC 节点广播到 Hoodi 测试网。私钥从不离开本机。`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init()
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("keystore", "k", "wallet.json", "Keystore 文件路径")
	rootCmd.PersistentFlags().StringP("server", "s", "", "staking-server 地址 (默认取配置 orchestrator.server_url)")
}
