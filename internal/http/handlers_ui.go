package http

import (
	"html/template"
	"net/http"
	"strconv"

	"finexpress/internal/core"
	applog "finexpress/internal/log"
)

// indexPage is the data rendered by index.html.
type indexPage struct {
	Summary      summaryResponse
	Filtered     bool
	Recent       txTable
	All          txTable
	FilterQuery  string
	Today        string
	Error        string
	Notice       string
	SheetsExport bool
	Form         formValues
}

// txTable is one transaction table with the filter its delete forms return to.
type txTable struct {
	Rows           []transactionResponse
	FilterMonth    string
	FilterCategory string
}

// formValues echoes a rejected submission back into the form.
type formValues struct {
	Date, Type, Category, Note, Amount string
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"isIncome": func(t core.TxType) bool { return t == core.Income },
		"formMonth": func(month string) string {
			if month == "" {
				return allMonths
			}
			return month
		},
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r.URL.Query(), s.now())
	if err != nil {
		spec = core.DefaultFilter(s.now())
	}
	page := s.indexPage(r, spec)
	if err != nil {
		page.Error = err.Error()
	}
	if added := r.URL.Query().Get("added"); added != "" {
		page.Notice = "Imported " + added + " transactions, skipped " + r.URL.Query().Get("skipped") + "."
	}
	s.renderIndex(w, r, http.StatusOK, page)
}

func (s *Server) indexPage(r *http.Request, spec core.FilterSpec) indexPage {
	v := s.view(r.Context(), spec)
	sum := s.present.summary(v)
	month := spec.Month
	if month == "" {
		month = allMonths
	}
	return indexPage{
		Summary:      sum,
		Filtered:     !spec.IsZero(),
		Recent:       txTable{Rows: sum.Recent, FilterMonth: month, FilterCategory: spec.Category},
		All:          txTable{Rows: s.present.transactions(v.Transactions), FilterMonth: month, FilterCategory: spec.Category},
		FilterQuery:  filterQuery(spec),
		Today:        s.now().Format(core.DateLayout),
		SheetsExport: s.exporter != nil,
		Form:         formValues{Type: string(core.Expense)},
	}
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, page indexPage) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed",
			applog.FieldError, err,
			"template", "index.html")
	}
}

// handleFormCreate adds a transaction from the dashboard form and redirects
// back to the filter the form was submitted from.
func (s *Server) handleFormCreate(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	_, err := s.create(r.Context(), p)
	spec := formFilter(p.Get, s)
	if err != nil {
		if !core.IsValidation(err) {
			s.writeCreateError(w, err)
			return
		}
		page := s.indexPage(r, spec)
		page.Error = err.Error()
		page.Form = formValues{
			Date:     p.Get("date"),
			Type:     p.Get("type"),
			Category: p.Get("category"),
			Note:     p.Get("note"),
			Amount:   p.Get("amount"),
		}
		s.renderIndex(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	http.Redirect(w, r, "/?"+filterQuery(spec), http.StatusSeeOther)
}

func (s *Server) handleFormDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := s.removeByID(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, "failed to delete transaction", http.StatusInternalServerError)
		return
	}
	spec := formFilter(r.PostForm.Get, s)
	http.Redirect(w, r, "/?"+filterQuery(spec), http.StatusSeeOther)
}

func (s *Server) handleFormImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.importFromRequest(w, r)
	spec := formFilter(r.FormValue, s)
	if err != nil {
		page := s.indexPage(r, spec)
		page.Error = "Import failed: " + err.Error()
		s.renderIndex(w, r, http.StatusBadRequest, page)
		return
	}
	q := filterQuery(spec) +
		"&added=" + strconv.Itoa(len(res.Added)) +
		"&skipped=" + strconv.Itoa(res.Skipped)
	http.Redirect(w, r, "/?"+q, http.StatusSeeOther)
}

// allMonths is the filter_month value of a form rendered without a month
// filter.
const allMonths = "all"

// formFilter reads the filter_month and filter_category hidden fields.
// A form without them falls back to the current month.
func formFilter(get func(string) string, s *Server) core.FilterSpec {
	month := sanitizeInput(get("filter_month"))
	switch month {
	case allMonths:
		month = ""
	case "":
		month = core.CurrentMonth(s.now())
	}
	return core.FilterSpec{
		Month:    month,
		Category: sanitizeInput(get("filter_category")),
	}
}
