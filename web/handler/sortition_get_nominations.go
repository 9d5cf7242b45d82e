package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/screwyprof/sortition/pkg/httpkit"
	"github.com/screwyprof/sortition/web/api"
	"github.com/screwyprof/sortition/web/handler/bind"
	"github.com/screwyprof/sortition/web/sortition"
)

const GetNominationsRoute = http.MethodGet + " " + "/sortition/nominations"

var ErrQueryFailed = errors.New("failed to query nominations")

type SortitionGetNominations struct {
	finder sortition.NominationsFinder
}

func NewSortitionGetNominations(finder sortition.NominationsFinder) *SortitionGetNominations {
	return &SortitionGetNominations{
		finder: finder,
	}
}

func (h *SortitionGetNominations) AddRoutes(m *http.ServeMux) {
	m.Handle(GetNominationsRoute, httpkit.HandlerFunc(h.GetNominations))
}

func (h *SortitionGetNominations) GetNominations(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetNominationsRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	criteria, err := sortition.NewNominationsCriteria(req.Nominator, req.Page, req.PerPage)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	page, err := h.finder.FindNominations(r.Context(), criteria)
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	if linkHeader := buildPaginationLinks(page, r.URL); linkHeader != "" {
		w.Header().Set("Link", linkHeader)
	}

	return httpkit.JSON(bind.GetNominationsResponse(page.Nominations))
}

// buildPaginationLinks creates a GitHub-style Link header with prev and next.
// first is always page=1 and last would need a count query, so both are left out.
func buildPaginationLinks(page *sortition.NominationsPage, baseURL *url.URL) string {
	var links []string

	u := *baseURL
	query := u.Query()

	if page.HasPrevious() {
		query.Set("page", fmt.Sprintf("%d", page.Number-1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, u.String()))
	}

	if page.HasNext() {
		query.Set("page", fmt.Sprintf("%d", page.Number+1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, u.String()))
	}

	return strings.Join(links, ", ")
}
