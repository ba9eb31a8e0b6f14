package model

// CommandRequest represents request for POST /bot/command
type CommandRequest struct {
	ChatID int64  `json:"chatId"`
	Text   string `json:"text"`
}

// CommandResponse represents response for POST /bot/command
type CommandResponse struct {
	Text  string `json:"text"`
	Photo string `json:"photo,omitempty"` // base64 PNG
}

// HealthResponse represents response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
}
