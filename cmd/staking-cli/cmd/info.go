package cmd

import (
	"context"
	"fmt"
	"os"

	"staking-core/pkg/config"
	"staking-core/pkg/logger"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "查询当前账户的 staking 余额快照",
	Long: `通过网关查询可质押余额与可领取奖励。
指定 --address 时直接查询该地址，无需解锁 Keystore。`,
	Run: func(cmd *cobra.Command, args []string) {
		logger.Init(config.Global.App.Env)
		defer logger.Sync()

		address, _ := cmd.Flags().GetString("address")
		if address == "" {
			// 未指定地址时从 Keystore 派生
			_, addr, err := unlockWallet(cmd)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			address = addr.Hex()
		}
		fmt.Printf("账户: %s\n", address)

		// 只查询不签名，不需要连接 RPC 节点
		flow, err := newWorkflow(cmd, nil, address)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if err := flow.Initialize(context.Background()); err != nil {
			fmt.Printf("查询失败: %v\n", err)
			os.Exit(1)
		}
		printInfo(flow.Info())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringP("address", "a", "", "查询指定地址 (默认使用 Keystore 账户)")
}
