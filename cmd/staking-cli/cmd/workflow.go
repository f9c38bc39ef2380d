package cmd

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"syscall"

	"staking-core/internal/client"
	"staking-core/internal/model"
	"staking-core/internal/orchestrator"
	"staking-core/pkg/chain"
	"staking-core/pkg/config"
	"staking-core/pkg/hdwallet"
	"staking-core/pkg/keystore"
	"staking-core/pkg/logger"
	"staking-core/pkg/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// unlockWallet 加载 Keystore、解密助记词并派生首个 ETH 账户私钥
func unlockWallet(cmd *cobra.Command) (*ecdsa.PrivateKey, common.Address, error) {
	keystoreFile, _ := cmd.Flags().GetString("keystore")

	encryptedKey, err := keystore.LoadFromFile(keystoreFile)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("加载 Keystore 失败 (请先运行 'staking-cli init'): %w", err)
	}

	// 密码优先取环境变量 WALLET_PASSWORD，否则交互式输入
	password := config.Global.Wallet.Password
	if password == "" {
		fmt.Print("请输入 Keystore 密码: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return nil, common.Address{}, fmt.Errorf("读取密码失败: %w", err)
		}
		fmt.Println()
		password = string(bytePassword)
	}

	mnemonic, err := keystore.DecryptMnemonic(encryptedKey, password)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("解密失败 (密码错误?): %w", err)
	}

	hd, err := hdwallet.NewFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, common.Address{}, err
	}
	key, err := hd.DerivePath(hdwallet.DefaultETHPath)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("派生私钥失败: %w", err)
	}
	addr, err := hd.Address(hdwallet.DefaultETHPath)
	if err != nil {
		return nil, common.Address{}, err
	}
	return key, addr, nil
}

// newWorkflow 组装签名工作流: 网关客户端 + (可选) RPC 钱包 + orchestrator
func newWorkflow(cmd *cobra.Command, key *ecdsa.PrivateKey, address string) (*orchestrator.Orchestrator, error) {
	serverURL, _ := cmd.Flags().GetString("server")
	if serverURL == "" {
		serverURL = config.Global.Orchestrator.ServerURL
	}
	gateway := client.NewStakingClient(serverURL)

	var connector wallet.Connector
	if key != nil {
		rpcWallet, err := wallet.NewRPCWallet(key,
			map[int64]string{config.Global.Chain.ID: config.Global.Chain.RpcUrl},
			config.Global.Chain.ID)
		if err != nil {
			return nil, fmt.Errorf("连接 RPC 节点失败: %w", err)
		}
		connector = rpcWallet
	}

	return orchestrator.New(gateway, connector, address, orchestrator.Options{
		ChainID:      config.Global.Chain.ID,
		SwitchSettle: config.Global.Orchestrator.SwitchSettle(),
		RefreshDelay: config.Global.Orchestrator.RefreshDelay(),
	}), nil
}

// runStakingAction 是 stake/unstake/claim 共用的完整流程:
// 初始化 → 构建 → 确认 → 签名发送
func runStakingAction(cmd *cobra.Command, action, amount string) {
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	key, addr, err := unlockWallet(cmd)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("账户: %s\n", addr.Hex())

	flow, err := newWorkflow(cmd, key, addr.Hex())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	ctx := context.Background()

	// 1. 初始化并展示当前余额
	if err := flow.Initialize(ctx); err != nil {
		fmt.Printf("初始化失败: %v\n", err)
		os.Exit(1)
	}
	printInfo(flow.Info())

	// 2. 构建未签名交易
	fmt.Printf("正在构建 %s 交易...\n", action)
	switch action {
	case model.OperationStake:
		err = flow.BuildStake(ctx, amount)
	case model.OperationUnstake:
		err = flow.BuildUnstake(ctx, amount)
	case model.OperationClaim:
		err = flow.BuildClaim(ctx)
	}
	if err != nil {
		fmt.Printf("构建交易失败: %v\n", err)
		os.Exit(1)
	}

	pending := flow.Pending()
	fmt.Println("\n================ 待签名交易 ================")
	fmt.Printf("操作:       %s\n", pending.Operation)
	fmt.Printf("金额:       %s %s\n", pending.Amount, chain.NativeSymbol)
	fmt.Printf("目标链:     %s (ID: %d)\n", config.Global.Chain.Name, config.Global.Chain.ID)
	fmt.Println("============================================")

	// 3. 确认
	fmt.Print("\n确认签名并发送? (y/N): ")
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	if input != "y" && input != "yes" {
		fmt.Println("已取消。")
		return
	}

	// 4. 签名并广播
	receipt, err := flow.SignAndSend(ctx)
	if err != nil {
		fmt.Printf("签名发送失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ 交易已发送!\n")
	fmt.Printf("TxHash:   %s\n", receipt.Hash)
	fmt.Printf("浏览器:   %s\n", chain.ExplorerTxURL(receipt.Hash))
}

func printInfo(info *model.StakingInfo) {
	fmt.Println("\n---------------- 余额快照 ----------------")
	fmt.Printf("钱包余额:     %s\n", info.Balance)
	fmt.Printf("可质押余额:   %s %s\n", info.StakeableBalance, chain.NativeSymbol)
	fmt.Printf("可领取奖励:   %s %s\n", info.ClaimableBalance, chain.NativeSymbol)
	fmt.Println("------------------------------------------")
}
