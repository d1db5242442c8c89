package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"poolLedger/internal/config"
	"poolLedger/internal/eventlog"
	"poolLedger/internal/model"
	"poolLedger/internal/runtime"
)

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func amountFlag(cmd *cobra.Command, name string) (*uint256.Int, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, fmt.Errorf("--%s is required", name)
	}
	amount, err := config.ParseAmount(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return amount, nil
}

func assetFlag(cmd *cobra.Command, name string) (model.AssetID, error) {
	if !cmd.Flags().Changed(name) {
		return 0, fmt.Errorf("--%s is required", name)
	}
	value, err := cmd.Flags().GetUint64(name)
	if err != nil {
		return 0, err
	}
	return model.AssetID(value), nil
}

func printJSON(w io.Writer, value interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

type receiptView struct {
	Seq    uint64              `json:"seq"`
	Call   string              `json:"call"`
	Writes int                 `json:"writes"`
	Events []*model.TypedEvent `json:"events"`
}

func printReceipt(w io.Writer, receipt runtime.Receipt) error {
	decoder, err := eventlog.NewDecoder()
	if err != nil {
		return err
	}
	view := receiptView{
		Seq:    receipt.Seq,
		Call:   receipt.Call,
		Writes: receipt.Writes,
		Events: make([]*model.TypedEvent, 0, len(receipt.Logs)),
	}
	for _, record := range receipt.Logs {
		event, err := decoder.Decode(record)
		if err != nil {
			return err
		}
		view.Events = append(view.Events, event)
	}
	return printJSON(w, view)
}
