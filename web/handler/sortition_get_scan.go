package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/screwyprof/sortition/pkg/httpkit"
	"github.com/screwyprof/sortition/web/api"
	"github.com/screwyprof/sortition/web/handler/bind"
	"github.com/screwyprof/sortition/web/sortition"
)

const GetScanRoute = http.MethodGet + " " + "/sortition/scans/{id}"

var ErrScanQueryFailed = errors.New("failed to query scan")

type SortitionGetScan struct {
	finder sortition.ScanFinder
}

func NewSortitionGetScan(finder sortition.ScanFinder) *SortitionGetScan {
	return &SortitionGetScan{finder: finder}
}

func (h *SortitionGetScan) AddRoutes(m *http.ServeMux) {
	m.Handle(GetScanRoute, httpkit.HandlerFunc(h.GetScan))
}

func (h *SortitionGetScan) GetScan(_ http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetScanRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	scan, err := h.finder.FindScan(r.Context(), req.ID)
	if errors.Is(err, sortition.ErrScanNotFound) {
		return httpkit.JsonError(api.NotFound(err))
	}
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrScanQueryFailed, err)))
	}

	return httpkit.JSON(bind.GetScanResponse(scan))
}
