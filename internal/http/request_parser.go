package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"finexpress/internal/core"
)

const (
	maxFormBytes   = 64 << 10
	maxImportBytes = 10 << 20
)

// RequestBodyParser reads a request body once and exposes its fields
// whether it was sent as JSON or as a urlencoded form.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]interface{})
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(body))
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// transactionInput is the raw form of a new transaction.
type transactionInput struct {
	Date     string
	Type     core.TxType
	Category string
	Note     string
	Amount   decimal.Decimal
}

// parseTransactionInput reads the date, type, category, note and amount
// fields. Type and amount are parsed here; the remaining checks happen when
// the ledger builds the transaction.
func parseTransactionInput(p *RequestBodyParser) (transactionInput, error) {
	if err := p.Parse(); err != nil {
		return transactionInput{}, fmt.Errorf("%w: %w", errMalformedBody, err)
	}

	typ, err := core.ParseTxType(p.Get("type"))
	if err != nil {
		return transactionInput{}, &core.ValidationError{Field: "type", Err: err}
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return transactionInput{}, &core.ValidationError{Field: "amount", Err: err}
	}

	return transactionInput{
		Date:     p.Get("date"),
		Type:     typ,
		Category: p.Get("category"),
		Note:     p.Get("note"),
		Amount:   amount,
	}, nil
}

var (
	errMalformedBody = errors.New("malformed request body")
	errNoImportFile  = errors.New("no file uploaded")
)

// readImportText returns the CSV text of an import request: the "file" part
// of a multipart form, or the raw body otherwise.
func readImportText(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", fmt.Errorf("read import body: %w", err)
		}
		return string(data), nil
	}

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		return "", fmt.Errorf("parse multipart form: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return "", errNoImportFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read uploaded file: %w", err)
	}
	return string(data), nil
}
