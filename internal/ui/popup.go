package ui

import (
	"strings"

	"github.com/Mohsinsiddi/w3giveaway/internal/txn"
)

// TxPopup renders the transaction tracker. frame is the spinner frame shown
// while pending. Hidden records render as "".
func TxPopup(rec txn.Record, frame string) string {
	if !rec.Visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("Transaction · "+rec.FunctionName) + "\n")

	switch p := rec.Phase.(type) {
	case txn.Pending:
		sb.WriteString(StyleChain.Render(frame) + "  " + StyleWarning.Render("waiting for confirmation…") + "\n")
	case txn.Succeeded:
		sb.WriteString(Success("confirmed") + "\n")
		sb.WriteString(Meta("tx  ") + Addr(p.TxID) + "\n")
		sb.WriteString(Meta("url ") + Addr(rec.ExplorerURL()) + "\n")
	case txn.Failed:
		sb.WriteString(Err("failed") + "\n")
		sb.WriteString(StyleError.Render(p.Message) + "\n")
	default:
		sb.WriteString(Meta("idle") + "\n")
	}
	return StylePopup.Render(strings.TrimRight(sb.String(), "\n"))
}

// TxResult is the one-shot summary a CLI command prints after a write.
func TxResult(rec txn.Record) string {
	switch p := rec.Phase.(type) {
	case txn.Succeeded:
		return Success(rec.FunctionName+" confirmed") + "\n  " + Addr(rec.ExplorerURL())
	case txn.Failed:
		return Err(rec.FunctionName + " failed: " + p.Message)
	default:
		return Meta(rec.FunctionName + " " + rec.Phase.String())
	}
}
