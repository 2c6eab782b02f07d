package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"finexpress/internal/core"
	"finexpress/internal/csvcodec"
	applog "finexpress/internal/log"
)

// exportFilename is the attachment name of a CSV export.
const exportFilename = "finexpress_export.csv"

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the dashboard and ledger are usable. A
// missing spreadsheet exporter is reported but does not fail readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["ledger"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]interface{}{
			"status":       "ok",
			"transactions": s.store.Len(),
			"revision":     s.store.Revision(),
		}
	}

	if s.exporter == nil {
		checks["sheets_export"] = "not_configured"
	} else {
		checks["sheets_export"] = "ok"
	}

	checks["view_cache_entries"] = s.views.Size()

	NewJSONResponse().Status(httpStatus).Data(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err).Write(w)
		return
	}
	v := s.view(r.Context(), spec)
	NewJSONResponse().Data(s.present.list(v)).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err).Write(w)
		return
	}
	v := s.view(r.Context(), spec)
	NewJSONResponse().Data(s.present.summary(v)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.create(r.Context(), NewRequestBodyParser(r))
	if err != nil {
		s.writeCreateError(w, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		Data(s.present.transaction(t)).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.removeByID(r.Context(), r.PathValue("id")); err != nil {
		InternalServerError("failed to delete transaction").Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.importFromRequest(w, r)
	if err != nil {
		s.writeImportError(w, err)
		return
	}
	NewJSONResponse().Data(importResponse{Added: len(res.Added), Skipped: res.Skipped}).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body := s.store.Export()
	applog.FromContext(r.Context()).InfoContext(r.Context(), "CSV export",
		applog.FieldOperation, applog.OpExport,
		"count", s.store.Len())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.exporter == nil {
		ErrorResponse(http.StatusServiceUnavailable, errors.New("spreadsheet export is not configured")).Write(w)
		return
	}

	list := s.store.Transactions()
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	ref, err := s.exporter.Export(cctx, list)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Spreadsheet export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		ErrorResponse(http.StatusBadGateway, errors.New("spreadsheet export failed")).Write(w)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Spreadsheet export completed", "ref", ref, "count", len(list))
	NewJSONResponse().Data(exportSheetsResponse{Ref: ref, Count: len(list)}).Write(w)
}

// create parses a JSON or form body and adds the transaction.
func (s *Server) create(ctx context.Context, p *RequestBodyParser) (core.Transaction, error) {
	in, err := parseTransactionInput(p)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.Add(ctx, in.Date, in.Type, in.Category, in.Note, in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	s.invalidateViews()

	applog.FromContext(ctx).InfoContext(ctx, "Transaction created",
		applog.NewFields().WithOperation(applog.OpCreate).WithTransaction(t).ToSlice()...)
	return t, nil
}

func (s *Server) writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidation(err):
		UnprocessableEntityError(err).Write(w)
	case errors.Is(err, errMalformedBody):
		BadRequestError(err).Write(w)
	default:
		InternalServerError("failed to save transaction").Write(w)
	}
}

func (s *Server) removeByID(ctx context.Context, id string) error {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Transaction delete failed",
			applog.FieldTransactionID, id,
			applog.FieldError, err)
		return err
	}
	s.invalidateViews()
	applog.FromContext(ctx).InfoContext(ctx, "Transaction delete",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTransactionID, id,
		"removed", removed)
	return nil
}

func (s *Server) importFromRequest(w http.ResponseWriter, r *http.Request) (csvcodec.Result, error) {
	ctx := r.Context()
	text, err := readImportText(w, r)
	if err != nil {
		if errors.Is(err, errNoImportFile) {
			return csvcodec.Result{}, err
		}
		return csvcodec.Result{}, fmt.Errorf("%w: %w", errMalformedBody, err)
	}

	res, err := s.store.Import(ctx, text)
	if err != nil {
		return csvcodec.Result{}, err
	}
	s.invalidateViews()

	applog.FromContext(ctx).InfoContext(ctx, "CSV import",
		applog.FieldOperation, applog.OpImport,
		applog.FieldAdded, len(res.Added),
		applog.FieldSkipped, res.Skipped)
	return res, nil
}

func (s *Server) writeImportError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, errors.New("import file too large")).Write(w)
	case errors.Is(err, csvcodec.ErrInvalidHeader), errors.Is(err, errNoImportFile), errors.Is(err, errMalformedBody):
		BadRequestError(err).Write(w)
	default:
		InternalServerError("failed to import transactions").Write(w)
	}
}
