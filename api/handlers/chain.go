package handlers

import (
	"net/http"
)

func HandleChain(w http.ResponseWriter, r *http.Request, node Node) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	chain := node.Chain()
	response := map[string]interface{}{
		"chain":  chain,
		"length": len(chain),
		"valid":  node.IsChainValid(),
	}
	writeJSON(w, http.StatusOK, response)
}

func HandleChainHeight(w http.ResponseWriter, r *http.Request, node Node) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Height counts blocks, genesis included.
	response := map[string]int{
		"height": len(node.Chain()),
	}
	writeJSON(w, http.StatusOK, response)
}

func HandleChainHead(w http.ResponseWriter, r *http.Request, node Node) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, node.Latest())
}
