package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

// HandleBlock serves /api/blocks/{index}.
func HandleBlock(w http.ResponseWriter, r *http.Request, node Node) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/blocks/")
	if path == "" {
		http.Error(w, "Block index required in URL", http.StatusBadRequest)
		return
	}

	index, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		http.Error(w, "Invalid block index", http.StatusBadRequest)
		return
	}

	chain := node.Chain()
	if index >= uint64(len(chain)) {
		http.Error(w, "Block not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, chain[index])
}
