package model

import "time"

// Receipt is proof that a ledger transaction was committed.
type Receipt struct {
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}
