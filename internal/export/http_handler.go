package export

import (
	"fmt"
	"log"
	"net/http"
	"time"
)

type Handler struct {
	service *Service
}

// NewHTTPHandler serves GET requests by streaming the enquiry table as a CSV
// attachment.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filename := fmt.Sprintf("enquiries-%s.csv", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	rows, err := h.service.WriteCSV(r.Context(), w)
	if err != nil {
		// Headers are gone by now; all we can do is cut the stream short.
		log.Printf("[EXPORT] stream aborted after %d rows: %v", rows, err)
		return
	}
	log.Printf("[EXPORT] streamed %d enquiries to %s", rows, filename)
}
