// Copyright (c) 2025 BVK Chaitanya

package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error codes reported by the rpc nodes.
const (
	CodeSendTransactionPreflightFailure = -32002
	CodeNodeUnhealthy                   = -32005
)

// RPCError is an error reported by the rpc endpoint.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsNodeUnhealthy returns true if the rpc node reported it is lagging behind
// the cluster.
func (e *RPCError) IsNodeUnhealthy() bool {
	return e.Code == CodeNodeUnhealthy
}

// PreflightFailure holds the simulation result attached to a rejected
// sendTransaction call.
type PreflightFailure struct {
	Err           *TransactionError
	Logs          []string
	UnitsConsumed *uint64
}

// Preflight returns the simulation result when the error is a preflight
// failure.
func (e *RPCError) Preflight() (*PreflightFailure, bool) {
	if e.Code != CodeSendTransactionPreflightFailure || len(e.Data) == 0 {
		return nil, false
	}
	var data struct {
		Err           json.RawMessage `json:"err"`
		Logs          []string        `json:"logs"`
		UnitsConsumed *uint64         `json:"unitsConsumed"`
	}
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, false
	}
	pf := &PreflightFailure{
		Logs:          data.Logs,
		UnitsConsumed: data.UnitsConsumed,
	}
	if len(data.Err) != 0 && !bytes.Equal(data.Err, []byte("null")) {
		pf.Err = parseTransactionError(data.Err)
	}
	return pf, true
}

// TransactionError is an execution failure reported by the ledger.
type TransactionError struct {
	// Kind is the error name, eg: "InstructionError", "BlockhashNotFound".
	Kind string

	// InstructionIndex is the failed instruction's index for instruction
	// errors; -1 otherwise.
	InstructionIndex int

	// Instruction holds the inner instruction error name when it is not a
	// custom program error.
	Instruction string

	// Custom holds the program defined error code, if any.
	Custom *uint32

	Raw json.RawMessage
}

func (e *TransactionError) Error() string {
	switch {
	case e.Custom != nil:
		return fmt.Sprintf("instruction %d failed with custom program error 0x%x", e.InstructionIndex, *e.Custom)
	case e.InstructionIndex >= 0:
		return fmt.Sprintf("instruction %d failed: %s", e.InstructionIndex, e.Instruction)
	case e.Kind != "":
		return fmt.Sprintf("transaction failed: %s", e.Kind)
	}
	return fmt.Sprintf("transaction failed: %s", e.Raw)
}

// parseTransactionError decodes the ledger's json error forms: a plain
// string, or an object like {"InstructionError":[0,{"Custom":7}]}.
func parseTransactionError(raw json.RawMessage) *TransactionError {
	te := &TransactionError{InstructionIndex: -1, Raw: raw}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		te.Kind = name
		return te
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return te
	}
	for k, v := range obj {
		te.Kind = k
		if k != "InstructionError" {
			break
		}
		var pair []json.RawMessage
		if err := json.Unmarshal(v, &pair); err != nil || len(pair) != 2 {
			break
		}
		if err := json.Unmarshal(pair[0], &te.InstructionIndex); err != nil {
			te.InstructionIndex = -1
			break
		}
		var inner string
		if err := json.Unmarshal(pair[1], &inner); err == nil {
			te.Instruction = inner
			break
		}
		var custom struct {
			Custom *uint32 `json:"Custom"`
		}
		if err := json.Unmarshal(pair[1], &custom); err == nil && custom.Custom != nil {
			te.Custom = custom.Custom
			te.Instruction = "Custom"
			break
		}
		te.Instruction = string(pair[1])
	}
	return te
}

// Describe renders an rpc failure with all the diagnostic detail available,
// one item per line. Optional names function maps custom program error codes
// to readable names.
func Describe(err error, names func(uint32) string) string {
	var sb strings.Builder
	describeTxErr := func(te *TransactionError) {
		if te.Custom != nil {
			fmt.Fprintf(&sb, "Custom program error: 0x%x", *te.Custom)
			if names != nil {
				if s := names(*te.Custom); s != "" {
					fmt.Fprintf(&sb, " (%s)", s)
				}
			}
			sb.WriteString("\n")
			return
		}
		if te.InstructionIndex >= 0 {
			fmt.Fprintf(&sb, "Instruction %d error: %s\n", te.InstructionIndex, te.Instruction)
			return
		}
		fmt.Fprintf(&sb, "Transaction error: %s\n", te.Kind)
	}

	var rerr *RPCError
	var terr *TransactionError
	switch {
	case errors.As(err, &rerr):
		fmt.Fprintf(&sb, "Response error\nError code %d\nMessage: %s\n", rerr.Code, rerr.Message)
		if rerr.IsNodeUnhealthy() {
			sb.WriteString("Node is behind\n")
		}
		if pf, ok := rerr.Preflight(); ok {
			if pf.Err != nil {
				describeTxErr(pf.Err)
			}
			if len(pf.Logs) != 0 {
				sb.WriteString("Program logs\n")
				for _, line := range pf.Logs {
					sb.WriteString(line)
					sb.WriteString("\n")
				}
			}
			if pf.UnitsConsumed != nil {
				fmt.Fprintf(&sb, "Consumed %d compute units\n", *pf.UnitsConsumed)
			}
		}
	case errors.As(err, &terr):
		describeTxErr(terr)
	default:
		fmt.Fprintf(&sb, "Request error: %v\n", err)
	}
	return sb.String()
}
