package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/service"
)

const maxBatchBodySize = 1 << 20 // 1MB

type batchRequest struct {
	DeviceID string              `json:"device_id"`
	Events   []model.IngestEvent `json:"events"`
}

func handleBatch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBatchBodySize)
		defer func() { _ = r.Body.Close() }()

		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.DeviceID == "" {
			http.Error(w, "device_id is required", http.StatusBadRequest)
			return
		}

		var resp service.BatchResponse
		for _, event := range req.Events {
			if event.EventID == "" || event.ParsedAmountPaise <= 0 {
				resp.Rejected++
				continue
			}

			inserted, err := deps.Store.InsertIngestedEvent(r.Context(), req.DeviceID, event)
			if err != nil {
				slog.Error("failed to store ingested event", "event_id", event.EventID, "error", err)
				http.Error(w, "storage failure", http.StatusInternalServerError)
				return
			}
			if !inserted {
				resp.Deduped++
				continue
			}

			resp.Accepted++
			if event.ReviewRequired {
				resp.ReviewQueueAdded++
			} else {
				resp.TransactionsCreated++
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := deps.Store.CountIngestedEvents(r.Context())
		if err != nil {
			http.Error(w, "storage failure", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "ok",
			"ingested_events": count,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
