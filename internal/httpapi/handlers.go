// Package httpapi exposes the entry pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fjacquet/receipt-ledger/internal/common"
	"fjacquet/receipt-ledger/internal/dateutils"
	"fjacquet/receipt-ledger/internal/entry"
	"fjacquet/receipt-ledger/internal/entryparser"
	"fjacquet/receipt-ledger/internal/journal"
	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

// maxBodyBytes bounds request bodies; OCR text of a long receipt stays well
// below it.
const maxBodyBytes = 1 << 20

// EntryService is the part of entry.Service the handlers use.
type EntryService interface {
	FromCommand(ctx context.Context, text string, opts entry.Options) (*entry.Result, error)
	FromReceiptText(ctx context.Context, text string, opts entry.Options) (*entry.Result, error)
	FromPayload(ctx context.Context, p models.EntryPayload) (*entry.Result, error)
	ParseText(text string) (*entryparser.ParsedEntry, error)
}

// TextRequest carries command, receipt or ledger text plus optional entry
// header values.
type TextRequest struct {
	Text           string  `json:"text"`
	Date           string  `json:"date,omitempty"`
	Payee          string  `json:"payee,omitempty"`
	Vendor         string  `json:"vendor,omitempty"`
	Business       string  `json:"business,omitempty"`
	User           string  `json:"user,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	PaymentAccount string  `json:"paymentAccount,omitempty"`
	Memo           *string `json:"memo,omitempty"`
	ImageURL       *string `json:"imageUrl,omitempty"`
}

func (t TextRequest) options() (entry.Options, error) {
	opts := entry.Options{
		Payee:          t.Payee,
		Vendor:         t.Vendor,
		Business:       t.Business,
		User:           t.User,
		Currency:       t.Currency,
		PaymentAccount: t.PaymentAccount,
		Memo:           t.Memo,
		ImageURL:       t.ImageURL,
	}
	if t.Date != "" {
		date, err := time.ParseInLocation(dateutils.DateLayoutISO, t.Date, time.Local)
		if err != nil {
			return opts, err
		}
		opts.Date = date
	}
	return opts, nil
}

// EntriesHandler handles entry endpoints.
type EntriesHandler struct {
	service EntryService
	repo    journal.Repository
	logger  logging.Logger
}

// NewEntriesHandler creates an EntriesHandler. repo may be nil, in which case
// the read endpoints answer 404.
func NewEntriesHandler(service EntryService, repo journal.Repository, logger logging.Logger) *EntriesHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &EntriesHandler{service: service, repo: repo, logger: logger}
}

// Create handles POST /entries.
func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.EntryPayload
	if !h.decode(w, r, &payload) {
		return
	}
	result, err := h.service.FromPayload(r.Context(), payload)
	h.respondCreated(w, result, err)
}

// CreateFromCommand handles POST /entries/command.
func (h *EntriesHandler) CreateFromCommand(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := h.decodeText(w, r)
	if !ok {
		return
	}
	result, err := h.service.FromCommand(r.Context(), req.Text, opts)
	h.respondCreated(w, result, err)
}

// CreateFromReceipt handles POST /entries/receipt.
func (h *EntriesHandler) CreateFromReceipt(w http.ResponseWriter, r *http.Request) {
	req, opts, ok := h.decodeText(w, r)
	if !ok {
		return
	}
	result, err := h.service.FromReceiptText(r.Context(), req.Text, opts)
	h.respondCreated(w, result, err)
}

// Parse handles POST /entries/parse.
func (h *EntriesHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !h.decode(w, r, &req) {
		return
	}
	parsed, err := h.service.ParseText(req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entry": parsed})
}

// Get handles GET /entries/{id}.
func (h *EntriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid entry ID")
		return
	}
	if h.repo == nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "Entry not found")
		return
	}
	e, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, journal.ErrNotFound) {
			h.logger.WithError(err).Error("Failed to load entry", logging.F(logging.FieldEntryID, id.String()))
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entry": e})
}

// ListRows handles GET /entries/rows. The format query parameter selects
// "json" (default) or "csv".
func (h *EntriesHandler) ListRows(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = common.FormatJSON
	}
	if format != common.FormatJSON && format != common.FormatCSV {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid format")
		return
	}

	var rows []models.PostingRow
	if h.repo != nil {
		var err error
		rows, err = h.repo.ListRows(r.Context())
		if err != nil {
			h.logger.WithError(err).Error("Failed to list posting rows")
			writeServiceError(w, err)
			return
		}
	}

	if format == common.FormatCSV {
		w.Header().Set("Content-Type", "text/csv")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	if err := common.WritePostingRows(w, rows, format, 0); err != nil {
		h.logger.WithError(err).Warn("Failed to write posting rows")
	}
}

func (h *EntriesHandler) decode(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(out); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return false
	}
	return true
}

func (h *EntriesHandler) decodeText(w http.ResponseWriter, r *http.Request) (TextRequest, entry.Options, bool) {
	var req TextRequest
	if !h.decode(w, r, &req) {
		return req, entry.Options{}, false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing text")
		return req, entry.Options{}, false
	}
	opts, err := req.options()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid date")
		return req, entry.Options{}, false
	}
	return req, opts, true
}

func (h *EntriesHandler) respondCreated(w http.ResponseWriter, result *entry.Result, err error) {
	if err != nil {
		if !isClientError(err) {
			h.logger.WithError(err).Error("Entry creation failed")
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
