package model

// TxStatus is the ledger view of a broadcast transaction
type TxStatus string

const (
	TxStatusNotFound  TxStatus = "not_found"
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
	TxStatusUnknown   TxStatus = "unknown"
)

// SubmissionReceipt describes a broadcast donation
type SubmissionReceipt struct {
	TxID   string   `json:"txId"`
	URL    string   `json:"url"`
	Status TxStatus `json:"status"`
}
