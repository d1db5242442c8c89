package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage asset balances",
	}

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Credit new units of an asset",
		RunE:  runMint,
	}
	mintCmd.Flags().Uint64("asset", 0, "asset id")
	mintCmd.Flags().String("to", "", "receiving account")
	mintCmd.Flags().String("amount", "", "amount (decimal)")

	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move units of an asset between accounts",
		RunE:  runTransfer,
	}
	transferCmd.Flags().Uint64("asset", 0, "asset id")
	transferCmd.Flags().String("from", "", "sending account")
	transferCmd.Flags().String("to", "", "receiving account")
	transferCmd.Flags().String("amount", "", "amount (decimal)")

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show an account balance",
		RunE:  runBalance,
	}
	balanceCmd.Flags().Uint64("asset", 0, "asset id")
	balanceCmd.Flags().String("account", "", "account")

	tokenCmd.AddCommand(mintCmd, transferCmd, balanceCmd)
	return tokenCmd
}

func runMint(cmd *cobra.Command, _ []string) error {
	asset, err := assetFlag(cmd, "asset")
	if err != nil {
		return err
	}
	to, err := addressFlag(cmd, "to")
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

	receipt, err := s.rt.Mint(ctx, asset, to, amount)
	if err != nil {
		return err
	}
	s.logger.Info("mint complete", zap.Uint64("seq", receipt.Seq), zap.Uint64("asset", uint64(asset)), zap.String("to", to.Hex()), zap.String("amount", amount.Dec()))
	return printReceipt(cmd.OutOrStdout(), receipt)
}

func runTransfer(cmd *cobra.Command, _ []string) error {
	asset, err := assetFlag(cmd, "asset")
	if err != nil {
		return err
	}
	from, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := addressFlag(cmd, "to")
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

	receipt, err := s.rt.Transfer(ctx, from, to, asset, amount)
	if err != nil {
		return err
	}
	return printReceipt(cmd.OutOrStdout(), receipt)
}

func runBalance(cmd *cobra.Command, _ []string) error {
	asset, err := assetFlag(cmd, "asset")
	if err != nil {
		return err
	}
	account, err := addressFlag(cmd, "account")
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	balance, err := s.rt.Balance(ctx, asset, account)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]interface{}{
		"asset":   asset,
		"account": account.Hex(),
		"balance": balance.Dec(),
	})
}
