// Package cli provides output formatting for the sqlrag command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hyperjump/sqlrag/internal/models"
	"github.com/hyperjump/sqlrag/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// contextPreview bounds the retrieved context printed by --show-context in text mode.
const contextPreview = 2000

// ParseOutputFormat accepts "text" or "json" (case-insensitive); empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OutputText):
		return OutputText, nil
	case string(OutputJSON):
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// AnswerOptions selects the optional parts of an answer to print.
type AnswerOptions struct {
	ShowSQL     bool
	ShowContext bool
}

// WriteAnswer writes an answer to w in the given format.
// In JSON mode SQL and context are dropped unless requested.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat, opts AnswerOptions) error {
	if answer == nil {
		return fmt.Errorf("nil answer")
	}
	switch format {
	case OutputJSON:
		out := *answer
		if !opts.ShowSQL {
			out.SQL = ""
		}
		if !opts.ShowContext {
			out.Context = ""
		}
		return writeJSON(w, out)
	default:
		writeAnswerText(w, answer, opts)
		return nil
	}
}

func writeAnswerText(w io.Writer, answer *models.Answer, opts AnswerOptions) {
	fmt.Fprintf(w, "\nQuestion: %s\n", answer.Question)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(w, "Sources:  %s\n", strings.Join(answer.Sources, ", "))
	}
	if opts.ShowContext && answer.Context != "" {
		fmt.Fprintln(w, "\n--- Retrieved context ---")
		fmt.Fprintln(w, utils.Truncate(answer.Context, contextPreview))
	}
	if !answer.Answered() {
		fmt.Fprintf(w, "\nNo answer: the model could not generate SQL from the retrieved schema (%dms)\n", answer.QueryTime)
		return
	}
	if opts.ShowSQL {
		fmt.Fprintln(w, "\n--- SQL ---")
		fmt.Fprintln(w, answer.SQL)
	}
	rows := 0
	if answer.Result != nil {
		rows = len(answer.Result.Rows)
	}
	fmt.Fprintf(w, "\n%d row(s) in %dms\n", rows, answer.QueryTime)
	if rows > 0 {
		WriteResultTable(w, answer.Result)
	}
}

// WriteResultTable renders a query result as a bordered table.
func WriteResultTable(w io.Writer, result *models.QueryResult) {
	if result == nil || len(result.Columns) == 0 {
		return
	}
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)

	rows := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		rows[i] = make([]string, len(result.Columns))
		for j := range result.Columns {
			if j < len(row) {
				rows[i][j] = FormatValue(row[j])
			}
		}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(result.Columns...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	fmt.Fprintln(w, t.Render())
}

// FormatValue renders a single SQL value for display; NULL stays visible.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteIngestResult writes the outcome of an ingestion run.
func WriteIngestResult(w io.Writer, result *models.IngestResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	switch {
	case result.Skipped && result.Stale:
		fmt.Fprintf(w, "Index already populated (%d chunks) but documents changed; run ingest --rebuild to refresh\n", result.Total)
	case result.Skipped:
		fmt.Fprintf(w, "Index already populated (%d chunks); skipped\n", result.Total)
	default:
		fmt.Fprintf(w, "Indexed %d chunk(s) from %d document(s) in %dms\n", result.Chunks, result.Documents, result.Duration)
	}
	if result.Fingerprint != "" {
		fmt.Fprintf(w, "fingerprint: %s\n", result.Fingerprint)
	}
	return nil
}

// KeyValue is one line of aligned "key: value  # comment" output.
type KeyValue struct {
	Key     string
	Value   any
	Comment string
}

// WriteKeyValues writes aligned key/value lines, the layout used by status output.
func WriteKeyValues(w io.Writer, pairs []KeyValue) {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p.Key)+1)
	}
	for _, p := range pairs {
		line := fmt.Sprintf("%-*s %v", width, p.Key+":", p.Value)
		if p.Comment != "" {
			line += "   # " + p.Comment
		}
		fmt.Fprintln(w, line)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
