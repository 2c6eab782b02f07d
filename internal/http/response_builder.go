package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"finexpress/internal/core"
	"finexpress/internal/ledger"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    interface{}
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v interface{}) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a JSON error body. Validation errors carry the
// offending field name.
func ErrorResponse(statusCode int, err error) *JSONResponseBuilder {
	body := errorResponse{Error: err.Error()}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	return NewJSONResponse().Status(statusCode).Data(body)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(err error) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, err)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(err error) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, err)
}

// InternalServerError creates a 500 response without leaking err.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, errors.New(message))
}

// transactionResponse is a transaction plus its display amount.
type transactionResponse struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Type     core.TxType `json:"type"`
	Category string      `json:"category"`
	Note     string      `json:"note"`
	Amount   json.Number `json:"amount"`
	Display  string      `json:"display"`
}

type listResponse struct {
	Filter       core.FilterSpec       `json:"filter"`
	Count        int                   `json:"count"`
	Revision     uint64                `json:"revision"`
	Income       amountResponse        `json:"income"`
	Expense      amountResponse        `json:"expense"`
	Balance      amountResponse        `json:"balance"`
	Transactions []transactionResponse `json:"transactions"`
}

type amountResponse struct {
	Amount  json.Number `json:"amount"`
	Display string      `json:"display"`
}

type categoryResponse struct {
	Name    string      `json:"name"`
	Type    core.TxType `json:"type"`
	Amount  json.Number `json:"amount"`
	Display string      `json:"display"`
}

type summaryResponse struct {
	Filter     core.FilterSpec       `json:"filter"`
	Count      int                   `json:"count"`
	Revision   uint64                `json:"revision"`
	Income     amountResponse        `json:"income"`
	Expense    amountResponse        `json:"expense"`
	Balance    amountResponse        `json:"balance"`
	ByCategory []categoryResponse    `json:"by_category"`
	Categories []string              `json:"categories"`
	Recent     []transactionResponse `json:"recent"`
}

type importResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type exportSheetsResponse struct {
	Ref   string `json:"ref"`
	Count int    `json:"count"`
}

// presenter turns ledger values into response bodies.
type presenter struct {
	symbol string
}

func (p presenter) amount(d decimal.Decimal) amountResponse {
	return amountResponse{Amount: json.Number(d.String()), Display: core.FormatAmount(p.symbol, d)}
}

func (p presenter) transaction(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:       t.ID,
		Date:     t.Date,
		Type:     t.Type,
		Category: t.Category,
		Note:     t.Note,
		Amount:   json.Number(t.Amount.String()),
		Display:  core.FormatAmount(p.symbol, t.Amount),
	}
}

func (p presenter) transactions(list []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, p.transaction(t))
	}
	return out
}

func (p presenter) list(v ledger.View) listResponse {
	return listResponse{
		Filter:       v.Filter,
		Count:        len(v.Transactions),
		Revision:     v.Revision,
		Income:       p.amount(v.Totals.Income),
		Expense:      p.amount(v.Totals.Expense),
		Balance:      p.amount(v.Totals.Balance),
		Transactions: p.transactions(v.Transactions),
	}
}

func (p presenter) summary(v ledger.View) summaryResponse {
	cats := make([]categoryResponse, 0, len(v.ByCategory))
	for _, c := range v.ByCategory {
		cats = append(cats, categoryResponse{
			Name:    c.Name,
			Type:    c.Type,
			Amount:  json.Number(c.Amount.String()),
			Display: core.FormatAmount(p.symbol, c.Amount),
		})
	}
	categories := v.Categories
	if categories == nil {
		categories = []string{}
	}
	return summaryResponse{
		Filter:     v.Filter,
		Count:      len(v.Transactions),
		Revision:   v.Revision,
		Income:     p.amount(v.Totals.Income),
		Expense:    p.amount(v.Totals.Expense),
		Balance:    p.amount(v.Totals.Balance),
		ByCategory: cats,
		Categories: categories,
		Recent:     p.transactions(v.Recent),
	}
}
