package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"relaychain/blockchain"
)

// TransactionRequest is the body of POST /api/transactions. The transfer is
// sent from the node's own wallet.
type TransactionRequest struct {
	To     blockchain.Address `json:"to"`
	Amount float64            `json:"amount"`
}

func HandleTransactions(w http.ResponseWriter, r *http.Request, node Node) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"pending": node.Pending(),
		})
	case http.MethodPost:
		handleCreateTransaction(w, r, node)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleCreateTransaction(w http.ResponseWriter, r *http.Request, node Node) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	tx, err := node.CreateTransaction(req.To, req.Amount)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, blockchain.ErrInvalidTransaction) {
			status = http.StatusBadRequest
		}
		logrus.WithField("to", req.To).Debugf("Transaction refused: %v", err)

		writeJSON(w, status, map[string]string{
			"status": "rejected",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status":      "pending",
		"hash":        tx.Hash(),
		"transaction": tx,
	})
}
