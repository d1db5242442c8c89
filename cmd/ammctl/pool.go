package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolLedger/internal/amm"
	"poolLedger/internal/model"
	"poolLedger/internal/runtime"
)

func newPoolCmd() *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Create and trade against pools",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pool funded by the creator",
		RunE:  runPoolInit,
	}
	initCmd.Flags().String("creator", "", "creating account")
	initCmd.Flags().String("pool", "", "pool account (derived from creator and assets when empty)")
	initCmd.Flags().Uint64("asset-a", 0, "first asset id")
	initCmd.Flags().String("amount-a", "", "first asset amount (decimal)")
	initCmd.Flags().Uint64("asset-b", 0, "second asset id")
	initCmd.Flags().String("amount-b", "", "second asset amount (decimal)")

	swapCmd := newPoolOpCmd("swap", "Sell an asset to a pool for its counterpart", func(ctx context.Context, rt *runtime.Runtime, operator, pool common.Address, asset model.AssetID, amount *uint256.Int) (runtime.Receipt, error) {
		return rt.Swap(ctx, operator, pool, asset, amount)
	})
	depositCmd := newPoolOpCmd("deposit", "Add liquidity in the pool's ratio", func(ctx context.Context, rt *runtime.Runtime, operator, pool common.Address, asset model.AssetID, amount *uint256.Int) (runtime.Receipt, error) {
		return rt.Deposit(ctx, operator, pool, asset, amount)
	})
	withdrawCmd := newPoolOpCmd("withdraw", "Remove liquidity in the pool's ratio", func(ctx context.Context, rt *runtime.Runtime, operator, pool common.Address, asset model.AssetID, amount *uint256.Int) (runtime.Receipt, error) {
		return rt.Withdraw(ctx, operator, pool, asset, amount)
	})

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show pool balances, shares and spot prices",
		RunE:  runPoolShow,
	}
	showCmd.Flags().String("pool", "", "pool account")

	shareCmd := &cobra.Command{
		Use:   "share",
		Short: "Show a provider's share of a pool",
		RunE:  runPoolShare,
	}
	shareCmd.Flags().String("pool", "", "pool account")
	shareCmd.Flags().String("provider", "", "provider account")

	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the derived pool account for a creator and asset pair",
		RunE:  runPoolDerive,
	}
	deriveCmd.Flags().String("creator", "", "creating account")
	deriveCmd.Flags().Uint64("asset-a", 0, "first asset id")
	deriveCmd.Flags().Uint64("asset-b", 0, "second asset id")

	poolCmd.AddCommand(initCmd, swapCmd, depositCmd, withdrawCmd, showCmd, shareCmd, deriveCmd)
	return poolCmd
}

type poolOp func(ctx context.Context, rt *runtime.Runtime, operator, pool common.Address, asset model.AssetID, amount *uint256.Int) (runtime.Receipt, error)

func newPoolOpCmd(use, short string, op poolOp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			operator, err := addressFlag(cmd, "operator")
			if err != nil {
				return err
			}
			pool, err := addressFlag(cmd, "pool")
			if err != nil {
				return err
			}
			asset, err := assetFlag(cmd, "asset")
			if err != nil {
				return err
			}
			amount, err := amountFlag(cmd, "amount")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			receipt, err := op(ctx, s.rt, operator, pool, asset, amount)
			if err != nil {
				return err
			}
			s.logger.Info(use+" complete",
				zap.Uint64("seq", receipt.Seq),
				zap.String("pool", pool.Hex()),
				zap.String("operator", operator.Hex()),
			)
			return printReceipt(cmd.OutOrStdout(), receipt)
		},
	}
	cmd.Flags().String("operator", "", "calling account")
	cmd.Flags().String("pool", "", "pool account")
	cmd.Flags().Uint64("asset", 0, "asset id the amount refers to")
	cmd.Flags().String("amount", "", "amount (decimal)")
	return cmd
}

func runPoolInit(cmd *cobra.Command, _ []string) error {
	creator, err := addressFlag(cmd, "creator")
	if err != nil {
		return err
	}
	assetA, err := assetFlag(cmd, "asset-a")
	if err != nil {
		return err
	}
	amountA, err := amountFlag(cmd, "amount-a")
	if err != nil {
		return err
	}
	assetB, err := assetFlag(cmd, "asset-b")
	if err != nil {
		return err
	}
	amountB, err := amountFlag(cmd, "amount-b")
	if err != nil {
		return err
	}

	pool := amm.DerivePoolAddress(creator, assetA, assetB)
	if value, _ := cmd.Flags().GetString("pool"); value != "" {
		if pool, err = addressFlag(cmd, "pool"); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	receipt, err := s.rt.Init(ctx, creator, pool, assetA, amountA, assetB, amountB)
	if err != nil {
		return err
	}
	s.logger.Info("init complete", zap.Uint64("seq", receipt.Seq), zap.String("pool", pool.Hex()))
	return printReceipt(cmd.OutOrStdout(), receipt)
}

type poolView struct {
	Address     string        `json:"address"`
	AssetA      model.AssetID `json:"asset_a"`
	AssetB      model.AssetID `json:"asset_b"`
	Invariant   string        `json:"invariant"`
	LiveProduct string        `json:"live_product"`
	BalanceA    string        `json:"balance_a"`
	BalanceB    string        `json:"balance_b"`
	TotalShares string        `json:"total_shares"`
	PriceA      string        `json:"price_a_in_b"`
	PriceB      string        `json:"price_b_in_a"`
	FeeRate     string        `json:"fee_rate"`
}

func runPoolShow(cmd *cobra.Command, _ []string) error {
	pool, err := addressFlag(cmd, "pool")
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := s.rt.PoolInfo(ctx, pool)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), poolView{
		Address:     info.Address.Hex(),
		AssetA:      info.Pool.AssetA,
		AssetB:      info.Pool.AssetB,
		Invariant:   info.Pool.Invariant.Dec(),
		LiveProduct: info.LiveProduct.Dec(),
		BalanceA:    info.BalanceA.Dec(),
		BalanceB:    info.BalanceB.Dec(),
		TotalShares: info.TotalShares.Dec(),
		PriceA:      info.PriceA.StringFixed(8),
		PriceB:      info.PriceB.StringFixed(8),
		FeeRate:     info.FeeRate.String(),
	})
}

func runPoolShare(cmd *cobra.Command, _ []string) error {
	pool, err := addressFlag(cmd, "pool")
	if err != nil {
		return err
	}
	provider, err := addressFlag(cmd, "provider")
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	share, err := s.rt.Share(ctx, pool, provider)
	if err != nil {
		return err
	}
	total, _, err := s.rt.TotalShares(ctx, pool)
	if err != nil {
		return err
	}
	view := map[string]string{
		"pool":     pool.Hex(),
		"provider": provider.Hex(),
		"share":    share.Dec(),
	}
	if total != nil {
		view["total_shares"] = total.Dec()
	}
	return printJSON(cmd.OutOrStdout(), view)
}

func runPoolDerive(cmd *cobra.Command, _ []string) error {
	creator, err := addressFlag(cmd, "creator")
	if err != nil {
		return err
	}
	assetA, err := assetFlag(cmd, "asset-a")
	if err != nil {
		return err
	}
	assetB, err := assetFlag(cmd, "asset-b")
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write([]byte(amm.DerivePoolAddress(creator, assetA, assetB).Hex() + "\n"))
	return err
}
