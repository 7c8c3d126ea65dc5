package handlers

import (
	"encoding/json"
	"net/http"

	"relaychain/blockchain"
)

// Node is the part of a node the API serves.
type Node interface {
	Address() blockchain.Address
	Chain() []*blockchain.Block
	Latest() *blockchain.Block
	Pending() []blockchain.Transaction
	BalanceOf(address blockchain.Address) float64
	IsChainValid() bool
	CreateTransaction(to blockchain.Address, amount float64) (*blockchain.Transaction, error)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
