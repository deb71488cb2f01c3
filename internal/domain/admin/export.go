package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/domain/credit"
	"github.com/numcheck/numcheck-api/internal/pkg/response"
	"github.com/numcheck/numcheck-api/internal/pkg/storage"
	"github.com/numcheck/numcheck-api/internal/pkg/validator"
)

// exportBatchSize caps rows pulled per query while streaming an export.
const exportBatchSize = 1000

// Exporter dumps ledger transactions to CSV and uploads the file
// to object storage.
type Exporter struct {
	credits credit.Service
	store   *storage.R2Storage
}

// NewExporter creates a transaction exporter. store may be nil, in
// which case exports are disabled.
func NewExporter(credits credit.Service, store *storage.R2Storage) *Exporter {
	return &Exporter{credits: credits, store: store}
}

// Enabled reports whether object storage is configured.
func (e *Exporter) Enabled() bool {
	return e.store != nil
}

// Export writes all transactions matching the filters to a CSV file in
// object storage and returns its public URL.
func (e *Exporter) Export(ctx context.Context, filters credit.SearchFilters) (string, int, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "user_id", "action", "amount_delta", "resulting_balance", "reason", "actor_kind", "actor_id", "related_entity_type", "related_entity_id", "created_at"}
	if err := w.Write(header); err != nil {
		return "", 0, err
	}

	rows := 0
	filters.Limit = exportBatchSize
	filters.Offset = 0
	for {
		txs, err := e.credits.SearchTransactions(ctx, filters)
		if err != nil {
			return "", 0, err
		}
		if len(txs) == 0 {
			break
		}

		for _, tx := range txs {
			record := []string{
				tx.ID,
				tx.UserID,
				tx.Action,
				strconv.Itoa(tx.AmountDelta),
				strconv.Itoa(tx.ResultingBalance),
				tx.Reason,
				tx.ActorKind,
				deref(tx.ActorID),
				deref(tx.RelatedEntityType),
				deref(tx.RelatedEntityID),
				tx.CreatedAt.Format(time.RFC3339),
			}
			if err := w.Write(record); err != nil {
				return "", 0, err
			}
			rows++
		}

		if len(txs) < exportBatchSize {
			break
		}
		filters.Offset += exportBatchSize
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", 0, err
	}

	key := fmt.Sprintf("exports/transactions-%s.csv", time.Now().UTC().Format("20060102-150405"))
	if err := e.store.Put(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return "", 0, err
	}

	log.Info().Str("key", key).Int("rows", rows).Msg("Transaction export uploaded")

	return e.store.PublicURL(key), rows, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ExportTransactions handles POST /admin/reports/transactions
func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil || !h.exporter.Enabled() {
		response.Error(w, http.StatusServiceUnavailable, "EXPORTS_DISABLED", "Object storage is not configured")
		return
	}

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	filters := credit.SearchFilters{
		UserID: req.UserID,
		Action: req.Action,
	}
	if req.DateFrom != nil {
		t, err := time.Parse(time.RFC3339, *req.DateFrom)
		if err != nil {
			response.BadRequest(w, "date_from must be RFC3339")
			return
		}
		filters.DateFrom = &t
	}
	if req.DateTo != nil {
		t, err := time.Parse(time.RFC3339, *req.DateTo)
		if err != nil {
			response.BadRequest(w, "date_to must be RFC3339")
			return
		}
		filters.DateTo = &t
	}

	url, rows, err := h.exporter.Export(r.Context(), filters)
	if err != nil {
		log.Error().Err(err).Msg("Transaction export failed")
		response.InternalError(w)
		return
	}

	adminID := GetAdminID(r.Context())
	h.service.logAction(r.Context(), adminID, "reports.export", "credit_transaction", uuid.Nil,
		nil,
		map[string]interface{}{"url": url, "rows": rows},
	)

	response.OK(w, map[string]interface{}{
		"url":  url,
		"rows": rows,
	})
}
