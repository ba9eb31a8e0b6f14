package model

import "github.com/gagliardetto/solana-go"

// TransactionTypeDonation is the only transaction kind the donation service builds
const TransactionTypeDonation = "transaction"

// TransactionRequest is the payload sent to the remote donation service
type TransactionRequest struct {
	Account         solana.PublicKey `json:"account"`
	LatestBlockhash string           `json:"latestBlockhash"`
	Type            string           `json:"type"`
}

// TransactionResponse is the remote donation service answer
type TransactionResponse struct {
	Transaction string `json:"transaction"` // base64 encoded unsigned transaction
}

// UnsignedTransaction is a validated template returned by the donation service
type UnsignedTransaction struct {
	Raw       []byte      // serialized transaction, signatures empty or zeroed
	Blockhash solana.Hash // blockhash supplied in the request; the message must carry it
}
