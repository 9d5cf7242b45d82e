package bind

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/screwyprof/sortition/web/api"
	"github.com/screwyprof/sortition/web/sortition"
)

// Sentinel errors for request binding
var (
	ErrInvalidPage    = errors.New("invalid page parameter")
	ErrInvalidPerPage = errors.New("invalid per_page parameter")
	ErrInvalidScanID  = errors.New("invalid scan id")

	ErrPageNotNumeric  = errors.New("page must be numeric")
	ErrPageNotPositive = errors.New("page must be positive")

	ErrPerPageNotNumeric  = errors.New("per_page must be numeric")
	ErrPerPageNotPositive = errors.New("per_page must be positive")
	ErrPerPageTooLarge    = errors.New("per_page must be between 1 and 100")

	ErrScanIDNotNumeric = errors.New(`scan id must be numeric or "latest"`)
)

// LatestScan is the path value addressing the most recent scan
const LatestScan = "latest"

// GetNominationsRequest binds HTTP request to NominationsRequest with defaults.
// The nominator is passed through as-is; the domain validates it.
func GetNominationsRequest(r *http.Request) (api.NominationsRequest, error) {
	req := api.NominationsRequest{
		Page:    sortition.DefaultPage,
		PerPage: sortition.DefaultPerPage,
	}

	query := r.URL.Query()
	req.Nominator = query.Get("nominator")

	if pageParam := query.Get("page"); pageParam != "" {
		page, err := parsePageNumber(pageParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPage, err)
		}
		req.Page = page
	}

	if perPageParam := query.Get("per_page"); perPageParam != "" {
		perPage, err := parsePerPageLimit(perPageParam)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
		}
		req.PerPage = perPage
	}

	return req, nil
}

func parsePageNumber(pageParam string) (uint64, error) {
	page, err := strconv.ParseUint(pageParam, 10, 64)
	if err != nil {
		return 0, ErrPageNotNumeric
	}
	if page == 0 {
		return 0, ErrPageNotPositive
	}
	return page, nil
}

func parsePerPageLimit(perPageParam string) (uint64, error) {
	perPage, err := strconv.ParseUint(perPageParam, 10, 64)
	if err != nil {
		return 0, ErrPerPageNotNumeric
	}
	if perPage == 0 {
		return 0, ErrPerPageNotPositive
	}
	if perPage > sortition.MaxPerPage {
		return 0, ErrPerPageTooLarge
	}
	return perPage, nil
}

// GetNominationsResponse binds domain nominations to API response format
func GetNominationsResponse(nominations []sortition.Nomination) api.NominationsResponse {
	data := make([]api.Nomination, len(nominations))
	for i, n := range nominations {
		data[i] = api.Nomination{
			TxHash:         n.TxHash,
			LogIndex:       strconv.FormatInt(n.LogIndex, 10),
			BlockNumber:    strconv.FormatInt(n.BlockNumber, 10),
			BlockTimestamp: formatOptionalTime(n.BlockTimestamp),
			TermNumber:     strconv.FormatInt(n.TermNumber, 10),
			Nominator:      n.Nominator,
			Pixels:         strconv.FormatInt(n.Pixels, 10),
		}
	}

	return api.NominationsResponse{Data: data}
}

// GetScanRequest binds the {id} path value; "latest" binds to ID 0
func GetScanRequest(r *http.Request) (api.ScanRequest, error) {
	raw := r.PathValue("id")
	if raw == LatestScan {
		return api.ScanRequest{}, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return api.ScanRequest{}, fmt.Errorf("%w: %w", ErrInvalidScanID, ErrScanIDNotNumeric)
	}

	return api.ScanRequest{ID: id}, nil
}

// GetScanResponse binds an archived scan to API response format
func GetScanResponse(scan *sortition.Scan) api.ScanResponse {
	entities := make([]api.Entity, len(scan.Entities))
	for i, e := range scan.Entities {
		entities[i] = api.Entity{
			TokenID:          e.TokenID,
			NominatedTokenID: e.NominatedTokenID,
			PixelCount:       strconv.FormatInt(e.PixelCount, 10),
		}
	}

	resp := api.ScanResponse{
		ID:            strconv.FormatInt(scan.ID, 10),
		WindowStart:   scan.WindowStart.Format(time.RFC3339),
		WindowEnd:     scan.WindowEnd.Format(time.RFC3339),
		FromBlock:     strconv.FormatInt(scan.FromBlock, 10),
		ToBlock:       strconv.FormatInt(scan.ToBlock, 10),
		TermExpiresAt: scan.TermExpiresAt.Format(time.RFC3339),
		Events:        scan.EventsCount,
		Discovered:    scan.DiscoveredCount,
		CreatedAt:     scan.CreatedAt.Format(time.RFC3339),
		Entities:      entities,
	}
	if scan.Incomplete != "" {
		resp.Incomplete = &scan.Incomplete
	}

	return resp
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
