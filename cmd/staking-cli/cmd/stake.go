package cmd

import (
	"staking-core/internal/model"

	"github.com/spf13/cobra"
)

var stakeCmd = &cobra.Command{
	Use:   "stake <amount>",
	Short: "质押指定数量的 ETH",
	Long:  `通过网关构建 stake 未签名交易，本地签名后广播到 Hoodi 测试网。`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStakingAction(cmd, model.OperationStake, args[0])
	},
}

var unstakeCmd = &cobra.Command{
	Use:   "unstake <amount>",
	Short: "解除质押指定数量的 ETH",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runStakingAction(cmd, model.OperationUnstake, args[0])
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "领取累计的 staking 奖励",
	Long:  `领取全部可领取奖励。金额由服务端按当前可领取余额决定，没有奖励时报错退出。`,
	Run: func(cmd *cobra.Command, args []string) {
		runStakingAction(cmd, model.OperationClaim, "")
	},
}

func init() {
	rootCmd.AddCommand(stakeCmd)
	rootCmd.AddCommand(unstakeCmd)
	rootCmd.AddCommand(claimCmd)
}
