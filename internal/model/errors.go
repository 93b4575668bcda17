package model

import (
	"fmt"
	"strings"
)

// NetworkError is a transport or status failure against an external HTTP API.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MintError means the minting API rejected (or never received) a create request.
type MintError struct {
	Status int
	Body   string
	Err    error
}

func (e *MintError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("mint rejected: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("mint failed: %v", e.Err)
}

func (e *MintError) Unwrap() error { return e.Err }

// DeploymentError is an on-chain failure. Stage names the step that failed:
// account, payload, simulate, submit, receipt, reverted or event.
type DeploymentError struct {
	Stage  string
	TxHash string
	Err    error
}

func (e *DeploymentError) Error() string {
	var b strings.Builder
	b.WriteString("deploy ")
	b.WriteString(e.Stage)
	if e.TxHash != "" {
		b.WriteString(" (tx ")
		b.WriteString(e.TxHash)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DeploymentError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid setting found at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}
