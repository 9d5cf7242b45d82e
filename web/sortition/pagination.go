package sortition

import (
	"errors"
	"fmt"
)

// Default pagination values
const (
	DefaultPage    = 1
	DefaultPerPage = 50
	MaxPerPage     = 100
)

// Page is a 1-based page number
type Page uint64

// PerPage is the number of items on a page
type PerPage uint64

var ErrPerPageTooLarge = errors.New("per_page exceeds maximum limit")

// ParsePageFromUint64 maps zero to the first page
func ParsePageFromUint64(page uint64) Page {
	if page == 0 {
		return Page(DefaultPage)
	}
	return Page(page)
}

// ParsePerPageFromUint64 maps zero to the default size and rejects sizes above MaxPerPage
func ParsePerPageFromUint64(perPage uint64) (PerPage, error) {
	if perPage == 0 {
		return PerPage(DefaultPerPage), nil
	}
	if perPage > MaxPerPage {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrPerPageTooLarge, MaxPerPage)
	}
	return PerPage(perPage), nil
}

func (p Page) Uint64() uint64     { return uint64(p) }
func (pp PerPage) Uint64() uint64 { return uint64(pp) }

// NominationsPage is one page of nominations, newest first
type NominationsPage struct {
	Nominations []Nomination
	HasMore     bool
	Number      Page
	Size        PerPage
}

func (p *NominationsPage) HasNext() bool     { return p.HasMore }
func (p *NominationsPage) HasPrevious() bool { return p.Number > 1 }
