package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportLogEntry captures a row-level issue that occurred during an import
// run, persisted so failed rows can be reviewed after the run ends.
type ImportLogEntry struct {
	ID           uuid.UUID `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	SourceFile   string    `json:"source_file"`
	RowNumber    *int      `json:"row_number,omitempty"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}
