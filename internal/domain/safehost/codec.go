package safehost

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"
)

// frame is the envelope of every message on the bridge. Requests carry id and method, responses
// id and result or error, notifications event.
type frame struct {
	ID     uint64         `json:"id,omitempty"`
	Method string         `json:"method,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Event  string         `json:"event,omitempty"`
}

type txParam struct {
	To    string `structs:"to"`
	Value string `structs:"value"`
	Data  string `structs:"data"`
}

type sendTransactionsResult struct {
	RequestID string `json:"requestId"`
}

type confirmationParams struct {
	RequestID  string      `json:"requestId"`
	SafeTxHash common.Hash `json:"safeTxHash"`
}

type rejectionParams struct {
	RequestID string `json:"requestId"`
}

func encodeCalls(calls []Call) map[string]any {
	txs := make([]any, 0, len(calls))
	for _, call := range calls {
		value := call.Value
		if value == nil {
			value = new(big.Int)
		}

		txs = append(txs, structs.Map(txParam{
			To:    call.To.Hex(),
			Value: value.String(),
			Data:  hexutil.Encode(call.Data),
		}))
	}

	return map[string]any{"txs": txs}
}

var (
	addressType = reflect.TypeOf(common.Address{})
	hashType    = reflect.TypeOf(common.Hash{})
)

// hexHook turns hex strings into addresses and hashes. Malformed hex fails the decode instead
// of being coerced into a different value.
func hexHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}

	s := data.(string)
	switch to {
	case addressType:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case hashType:
		b, err := hexutil.Decode(s)
		if err != nil || len(b) != common.HashLength {
			return nil, fmt.Errorf("invalid hash %q", s)
		}
		return common.BytesToHash(b), nil
	default:
		return data, nil
	}
}

func decode(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       hexHook,
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
