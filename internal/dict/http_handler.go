// Package dict exposes read-only dictionary and enquiry listing endpoints
// over the master-data repositories.
package dict

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"freight-enquiry-importer/internal/repository"

	"github.com/google/uuid"
)

// Handler serves the dictionary endpoints.
type Handler struct {
	countries  repository.CountryRepository
	ports      repository.PortRepository
	offices    repository.SalesOfficeRepository
	categories repository.CategoryRepository
	enquiries  repository.EnquiryRepository
	logs       repository.ImportLogRepository
}

// NewHandler creates a dictionary handler over the repositories.
func NewHandler(
	countries repository.CountryRepository,
	ports repository.PortRepository,
	offices repository.SalesOfficeRepository,
	categories repository.CategoryRepository,
	enquiries repository.EnquiryRepository,
	logs repository.ImportLogRepository,
) *Handler {
	return &Handler{
		countries:  countries,
		ports:      ports,
		offices:    offices,
		categories: categories,
		enquiries:  enquiries,
		logs:       logs,
	}
}

// Register mounts the endpoints on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /dict/countries", h.listCountries)
	mux.HandleFunc("GET /dict/ports", h.listPorts)
	mux.HandleFunc("GET /dict/sales-offices", h.listSalesOffices)
	mux.HandleFunc("GET /dict/categories", h.listCategories)
	mux.HandleFunc("GET /enquiries", h.listEnquiries)
	mux.HandleFunc("GET /import/logs", h.listImportLogs)
}

func (h *Handler) listCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.countries.LoadAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, countries)
}

func (h *Handler) listPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := h.ports.LoadAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ports)
}

func (h *Handler) listSalesOffices(w http.ResponseWriter, r *http.Request) {
	offices, err := h.offices.LoadAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, offices)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.LoadAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) listEnquiries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	enquiries, err := h.enquiries.List(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, enquiries)
}

func (h *Handler) listImportLogs(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if raw == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}
	runID, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid run_id: %v", err), http.StatusBadRequest)
		return
	}

	limit := queryInt(r, "limit", 200)
	offset := queryInt(r, "offset", 0)

	logs, err := h.logs.List(r.Context(), runID, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
