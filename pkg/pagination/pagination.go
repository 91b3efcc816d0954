package pagination

import (
	"net/http"
	"strconv"
)

// Unbounded is the per-page value that disables the cap.
const Unbounded = -1

// MaxPerPage caps client-requested page sizes unless unbounded reads are allowed.
const MaxPerPage = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// Options controls how FromRequest interprets the query.
type Options struct {
	DefaultPerPage int
	AllowUnbounded bool
}

// DefaultParams returns page 1 with 20 items.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: 20}
}

// IsUnbounded reports whether the caller asked for every row.
func (p Params) IsUnbounded() bool {
	return p.PerPage == Unbounded
}

// Limit returns the SQL-style limit, -1 meaning no limit.
func (p Params) Limit() int {
	return p.PerPage
}

// FromRequest extracts page and per_page with the default options.
func FromRequest(r *http.Request) Params {
	return FromRequestWith(r, Options{DefaultPerPage: 20})
}

// FromRequestWith extracts page and per_page. Invalid values keep the defaults.
// per_page=-1 is honoured only when opts.AllowUnbounded is set, and forces page 1.
func FromRequestWith(r *http.Request, opts Options) Params {
	p := DefaultParams()
	if opts.DefaultPerPage != 0 {
		p.PerPage = opts.DefaultPerPage
	}

	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		switch {
		case v == Unbounded && opts.AllowUnbounded:
			p.PerPage = Unbounded
		case v > 0 && v <= MaxPerPage:
			p.PerPage = v
		}
	}

	if p.IsUnbounded() {
		p.Page = 1
		p.Offset = 0
		return p
	}
	p.Offset = (p.Page - 1) * p.PerPage
	return p
}
