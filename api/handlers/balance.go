package handlers

import (
	"net/http"
	"strings"

	"relaychain/blockchain"
)

// HandleBalance serves /api/balance/{address}. Without an address it
// reports the node's own balance.
func HandleBalance(w http.ResponseWriter, r *http.Request, node Node) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	address := blockchain.Address(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/balance"), "/"))
	if address == "" {
		address = node.Address()
	}

	response := map[string]interface{}{
		"address": address,
		"balance": node.BalanceOf(address),
	}
	writeJSON(w, http.StatusOK, response)
}
