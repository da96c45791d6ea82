package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cuemby/storefront/pkg/metrics"
	"github.com/cuemby/storefront/pkg/provisioner"
	"github.com/cuemby/storefront/pkg/storage"
	"github.com/cuemby/storefront/pkg/types"
	"github.com/go-chi/chi/v5"
)

const (
	minStoreNameLength = 2
	maxStoreNameLength = 100

	defaultEngine = "woocommerce"

	defaultAuditLimit = 100
	maxAuditLimit     = 500

	recentFailureCount = 5
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	env := "production"
	if !s.production {
		env = "development"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": env,
	})
}

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := s.registry.List()
	if err != nil {
		writeError(w, internalError(err, s.production))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": stores})
}

func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	store, apiErr := s.lookupStore(chi.URLParam(r, "id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"store": store})
}

type createStoreRequest struct {
	Name   string `json:"name"`
	Engine string `json:"engine"`
}

func (s *Server) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var req createStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, NewError(http.StatusBadRequest, CodeInvalidJSON, "Request body is not valid JSON"))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, NewError(http.StatusBadRequest, CodeMissingStoreName, "Store name is required"))
		return
	}
	if n := utf8.RuneCountInString(name); n < minStoreNameLength || n > maxStoreNameLength {
		writeError(w, NewError(http.StatusBadRequest, CodeInvalidStoreName,
			fmt.Sprintf("Store name must be between %d and %d characters", minStoreNameLength, maxStoreNameLength)))
		return
	}

	engineName := req.Engine
	if engineName == "" {
		engineName = defaultEngine
	}
	eng, err := s.engines.Resolve(engineName)
	if err != nil {
		writeError(w, NewError(http.StatusBadRequest, CodeInvalidEngine,
			fmt.Sprintf("Invalid engine: %s. Valid engines: %s", engineName, strings.Join(s.engines.Names(), ", "))))
		return
	}
	if err := eng.Validate(); err != nil {
		writeError(w, NewError(http.StatusBadRequest, CodeEngineUnavailable, err.Error()))
		return
	}

	active, err := s.registry.ActiveCount()
	if err != nil {
		writeError(w, internalError(err, s.production))
		return
	}
	if active >= s.maxStores {
		writeError(w, NewError(http.StatusTooManyRequests, CodeQuotaExceeded,
			fmt.Sprintf("Maximum number of stores (%d) reached", s.maxStores)))
		return
	}

	store, err := s.registry.Create(name, engineName)
	if err != nil {
		writeError(w, internalError(err, s.production))
		return
	}

	go func() {
		if err := s.ops.Provision(store.ID); err != nil {
			s.logger.Warn().Err(err).Str("store_id", store.ID).Msg("background provision failed")
		}
	}()

	writeJSON(w, http.StatusCreated, map[string]any{"store": store})
}

func (s *Server) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	store, apiErr := s.lookupStore(chi.URLParam(r, "id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	if !store.Status.Deletable() {
		writeError(w, NewError(http.StatusConflict, CodeInvalidStateTransition,
			fmt.Sprintf("Store cannot be deleted while %s", store.Status)))
		return
	}
	if kind, held := s.ops.Status(store.ID); held && kind == types.OpDeleting {
		writeError(w, NewError(http.StatusConflict, CodeOperationInProgress,
			"Store deletion is already in progress"))
		return
	}

	go s.runDelete(store.ID)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message": "Store deletion started",
		"storeId": store.ID,
	})
}

// runDelete drives a background delete. Deleting a store that is mid
// provision is accepted at the API, so the delete waits for the provision
// to release the lock rather than failing the request.
func (s *Server) runDelete(storeID string) {
	deadline := time.Now().Add(s.deleteRetryBudget)
	for {
		err := s.ops.Delete(storeID)
		if err == nil {
			return
		}
		if !errors.Is(err, provisioner.ErrOperationInProgress) {
			s.logger.Warn().Err(err).Str("store_id", storeID).Msg("background delete failed")
			return
		}
		if time.Now().After(deadline) {
			s.logger.Warn().Str("store_id", storeID).Msg("background delete gave up waiting for lock")
			return
		}
		time.Sleep(s.deleteRetryInterval)
	}
}

func (s *Server) handleRetryStore(w http.ResponseWriter, r *http.Request) {
	store, apiErr := s.lookupStore(chi.URLParam(r, "id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	if store.Status != types.StatusFailed {
		writeError(w, NewError(http.StatusConflict, CodeInvalidStateTransition,
			"Only failed stores can be retried"))
		return
	}
	if _, held := s.ops.Status(store.ID); held {
		writeError(w, NewError(http.StatusConflict, CodeOperationInProgress,
			"An operation is already in progress for this store"))
		return
	}

	s.registry.Append(store.ID, types.AuditRetry, map[string]any{
		"previous_error": store.ErrorMessage,
	})

	go func() {
		if err := s.ops.Provision(store.ID); err != nil {
			s.logger.Warn().Err(err).Str("store_id", store.ID).Msg("background retry failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message": "Store provisioning restarted",
		"storeId": store.ID,
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := s.registry.Audit(limit)
	if err != nil {
		writeError(w, internalError(err, s.production))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": entries})
}

func (s *Server) handleStoreAudit(w http.ResponseWriter, r *http.Request) {
	store, apiErr := s.lookupStore(chi.URLParam(r, "id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	entries, err := s.registry.AuditFor(store.ID)
	if err != nil {
		writeError(w, internalError(err, s.production))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": entries})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	histogram, err := s.registry.StatusHistogram()
	if err != nil {
		writeError(w, internalError(err, s.production))
		return
	}

	total := 0
	byStatus := make(map[string]int, len(histogram))
	for status, count := range histogram {
		total += count
		byStatus[string(status)] = count
	}
	metrics.SetStoreCounts(byStatus)

	stats, err := s.registry.ProvisioningStats()
	if err != nil {
		writeError(w, internalError(err, s.production))
		return
	}

	failures, err := s.registry.RecentFailures(recentFailureCount)
	if err != nil {
		writeError(w, internalError(err, s.production))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stores": map[string]any{
			"total":    total,
			"byStatus": byStatus,
		},
		"provisioning":   stats,
		"recentFailures": failures,
	})
}

// lookupStore resolves a path id to a store or a 404
func (s *Server) lookupStore(id string) (*types.Store, *Error) {
	store, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			return nil, NewError(http.StatusNotFound, CodeNotFound, "Store not found")
		}
		return nil, internalError(err, s.production)
	}
	return store, nil
}

func internalError(err error, production bool) *Error {
	if production {
		return NewError(http.StatusInternalServerError, CodeInternalServerError,
			"An unexpected error occurred")
	}
	return NewError(http.StatusInternalServerError, CodeInternalServerError, err.Error())
}
