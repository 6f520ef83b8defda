package models

import "fmt"

type NotificationKind string

const (
	NotificationApproved          NotificationKind = "approved"
	NotificationDeposited         NotificationKind = "deposited"
	NotificationWithdrawRequested NotificationKind = "withdraw_requested"
	NotificationWithdrawSettled   NotificationKind = "withdraw_settled"
	NotificationWithdrawChanged   NotificationKind = "withdraw_changed"
	NotificationKeyRegenerated    NotificationKind = "key_regenerated"
	NotificationFailed            NotificationKind = "failed"
)

type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	TxHash  string           `json:"tx_hash,omitempty"`
}

func (n *Notification) String() string {
	out := fmt.Sprintf("%s\n%s", n.Title, n.Message)
	if n.TxHash != "" {
		out += "\nTransaction: " + n.TxHash
	}
	return out
}
