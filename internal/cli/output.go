package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	apperrors "github.com/spec-kit/crm/pkg/util"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

// printer renders command results either as styled text or as JSON.
type printer struct {
	w      io.Writer
	format string
}

func (p *printer) json() bool { return p.format == "json" }

// table prints rows, or data when the JSON format is selected.
func (p *printer) table(headers []string, rows [][]string, data any) error {
	if p.json() {
		return printJSON(p.w, data)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(p.w, faintStyle.Render("No results."))
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(p.w, t.Render())
	return err
}

// detail prints label/value pairs of a single record.
func (p *printer) detail(fields [][2]string, data any) error {
	if p.json() {
		return printJSON(p.w, data)
	}
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f[0]))
	}
	label := headerStyle.Width(width + 2)
	for _, f := range fields {
		if _, err := fmt.Fprintln(p.w, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(f[0]), f[1])); err != nil {
			return err
		}
	}
	return nil
}

// success prints a confirmation line, or data as JSON.
func (p *printer) success(message string, data any) error {
	if p.json() {
		return printJSON(p.w, data)
	}
	_, err := fmt.Fprintln(p.w, successStyle.Render(message))
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderError prints err for the user. JSON errors go to stdout so scripts
// can parse them; text errors go to stderr.
func renderError(stdout, stderr io.Writer, format string, err error) {
	message := err.Error()
	code := ""
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
		code = domainErr.Code
	}

	if format == "json" {
		body := map[string]any{"error": message}
		if code != "" {
			body["code"] = code
			body["status"] = domainErr.HTTPStatus
		}
		_ = printJSON(stdout, body)
		return
	}
	_, _ = fmt.Fprintf(stderr, "%s %s\n", errorStyle.Render("Error:"), message)
}

func formatID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
