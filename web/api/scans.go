package api

// ScanRequest addresses one archived scan; ID 0 means the latest
type ScanRequest struct {
	ID int64 `path:"id"`
}

// Entity is a nominated entity as resolved by a scan
type Entity struct {
	TokenID          string `json:"token_id"`
	NominatedTokenID string `json:"nominated_token_id"`
	PixelCount       string `json:"pixel_count"`
}

// ScanResponse represents the API response format for GET /sortition/scans/{id}
type ScanResponse struct {
	ID            string   `json:"id"`
	WindowStart   string   `json:"window_start"`
	WindowEnd     string   `json:"window_end"`
	FromBlock     string   `json:"from_block"`
	ToBlock       string   `json:"to_block"`
	TermExpiresAt string   `json:"term_expires_at"`
	Events        int      `json:"events"`
	Discovered    int      `json:"discovered"`
	Incomplete    *string  `json:"incomplete"`
	CreatedAt     string   `json:"created_at"`
	Entities      []Entity `json:"entities"`
}
