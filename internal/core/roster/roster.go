// Package roster parses bulk student import spreadsheets: a header block
// naming the school, division and year, a column-title row, then one data
// row per student.
package roster

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parse errors
var (
	ErrEmptySheet    = errors.New("spreadsheet is empty")
	ErrMissingHeader = errors.New("header block incomplete (needs school, division and year)")
)

// Header identifies the division the roster belongs to
type Header struct {
	School   string `json:"school"`
	Division string `json:"division"`
	Year     int    `json:"year"`
}

// Row is one student line
type Row struct {
	Line         int     `json:"line"`
	DNI          string  `json:"dni"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	TotalAmount  float64 `json:"total_amount"`
	Installments int     `json:"installments"`
}

// RowError reports a data row that could not be parsed
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Roster is the parsed sheet
type Roster struct {
	Header Header     `json:"header"`
	Rows   []Row      `json:"rows"`
	Errors []RowError `json:"errors,omitempty"`
}

// ReadFile extracts the cell matrix from an xlsx stream (first sheet).
func ReadFile(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptySheet
	}

	return f.GetRows(sheet)
}

// Parse interprets the cell matrix. The header block is a set of key/value
// rows (school, division, year, any order) before the first data row; the
// row right after the block is treated as column titles and skipped.
// Data columns: dni, first name, last name, email, total amount,
// installment count.
func Parse(rows [][]string) (*Roster, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	roster := &Roster{}
	i := 0

	// Header block
	for ; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 2 {
			break
		}
		key := normalizeKey(row[0])
		value := strings.TrimSpace(row[1])

		switch key {
		case "colegio", "escuela", "school":
			roster.Header.School = value
		case "division", "curso":
			roster.Header.Division = value
		case "ano", "anio", "year":
			year, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid year %q", ErrMissingHeader, value)
			}
			roster.Header.Year = year
		default:
			// first non-header row: end of block
			goto headerDone
		}
	}

headerDone:
	if roster.Header.School == "" || roster.Header.Division == "" || roster.Header.Year == 0 {
		return nil, ErrMissingHeader
	}

	// Column-title row
	if i < len(rows) {
		i++
	}

	// Data rows
	for ; i < len(rows); i++ {
		line := i + 1 // 1-based like the spreadsheet
		row := rows[i]
		if isBlank(row) {
			continue
		}
		if len(row) < 5 {
			roster.Errors = append(roster.Errors, RowError{Line: line, Message: "row has fewer than 5 columns"})
			continue
		}

		dni := strings.TrimSpace(row[0])
		if dni == "" {
			roster.Errors = append(roster.Errors, RowError{Line: line, Message: "missing dni"})
			continue
		}

		total, err := parseAmount(row[4])
		if err != nil {
			roster.Errors = append(roster.Errors, RowError{Line: line, Message: "invalid total amount: " + row[4]})
			continue
		}

		installments := 1
		if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
			installments, err = strconv.Atoi(strings.TrimSpace(row[5]))
			if err != nil || installments < 1 {
				roster.Errors = append(roster.Errors, RowError{Line: line, Message: "invalid installment count: " + row[5]})
				continue
			}
		}

		email := ""
		if len(row) > 3 {
			email = strings.TrimSpace(row[3])
		}

		roster.Rows = append(roster.Rows, Row{
			Line:         line,
			DNI:          dni,
			FirstName:    strings.TrimSpace(row[1]),
			LastName:     strings.TrimSpace(row[2]),
			Email:        email,
			TotalAmount:  total,
			Installments: installments,
		})
	}

	return roster, nil
}

// normalizeKey lowercases a header key and strips the accents that show up
// in Spanish sheets.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", ":", "")
	return replacer.Replace(s)
}

// parseAmount accepts "16666.67" and "16.666,67" style numbers.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
