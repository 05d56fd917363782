package api

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TreeStats describes one tree for the stats endpoint.
type TreeStats struct {
	Name   string `json:"name"`
	Order  int    `json:"order"`
	Keys   int    `json:"keys"`
	Nodes  int    `json:"nodes"`
	Height int    `json:"height"`
	Root   int32  `json:"root"`
}

// KeyResult is one key lookup's payload.
type KeyResult struct {
	Key   int32 `json:"key"`
	Value int32 `json:"value"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port    int
	Bind    string
	APIKey  string
	DataDir string
	Order   int
}
