package reporting

import (
	"encoding/json"
	"io"

	"github.com/spboyer/probscore/internal/models"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report *models.EvaluationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
