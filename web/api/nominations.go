package api

// NominationsRequest represents the query parameters for GET /sortition/nominations
type NominationsRequest struct {
	Nominator string `query:"nominator"` // Optional 0x-prefixed account address
	Page      uint64 `query:"page"`      // Page number (default: 1)
	PerPage   uint64 `query:"per_page"`  // Items per page (default: 50, max: 100)
}

// Nomination is a single archived nomination in the API response.
// Numbers are strings so clients never lose precision.
type Nomination struct {
	TxHash         string  `json:"tx_hash"`
	LogIndex       string  `json:"log_index"`
	BlockNumber    string  `json:"block_number"`
	BlockTimestamp *string `json:"block_timestamp"`
	TermNumber     string  `json:"term_number"`
	Nominator      string  `json:"nominator"`
	Pixels         string  `json:"pixels"`
}

// NominationsResponse represents the API response format for GET /sortition/nominations
type NominationsResponse struct {
	Data []Nomination `json:"data"`
}
