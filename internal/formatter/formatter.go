// package formatter renders rounds, rosters and pairing statistics as text, CSV and Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/desertthunder/oneplusone/internal/models"
)

// TimestampLayout is the layout of the timestamp line in a round.
const TimestampLayout = "2006-01-02 15:04:05"

// RoundHeader opens every round.
const RoundHeader = "Generating new pairing :"

// RoundSeparator closes every round.
const RoundSeparator = "---"

// FormatRound renders a round as a header, a timestamp, one "<a> with <b>" line per pair in
// selection order and a trailing separator.
func FormatRound(round models.Round) []byte {
	var buf bytes.Buffer

	buf.WriteString(RoundHeader + "\n")
	buf.WriteString(round.At.Format(TimestampLayout) + "\n")
	for _, p := range round.Pairs {
		fmt.Fprintf(&buf, "%s with %s\n", p.First.Email, p.Second.Email)
	}
	buf.WriteString(RoundSeparator + "\n")

	return buf.Bytes()
}

// WriteRound writes a formatted round to w.
func WriteRound(w io.Writer, round models.Round) error {
	if _, err := w.Write(FormatRound(round)); err != nil {
		return fmt.Errorf("failed to write round: %w", err)
	}
	return nil
}

// AppendRound appends a formatted round to the file at path, creating it if needed.
func AppendRound(path string, round models.Round) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	if err := WriteRound(f, round); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// ExportPairingsToCSV converts pairing rows to CSV with columns: First, Second, PairingCount, TeamCount
func ExportPairingsToCSV(rows []models.PairingRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"First", "Second", "PairingCount", "TeamCount"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.First.Email,
			row.Second.Email,
			strconv.FormatUint(uint64(row.PairingCount), 10),
			strconv.FormatUint(uint64(row.TeamCount), 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportPairingsToText renders one aligned line per pairing.
func ExportPairingsToText(rows []models.PairingRow) []byte {
	var buf bytes.Buffer

	width := 0
	for _, row := range rows {
		width = max(width, len(row.First.Email)+len(row.Second.Email)+len(" with "))
	}

	for _, row := range rows {
		pair := row.First.Email + " with " + row.Second.Email
		fmt.Fprintf(&buf, "%-*s  paired %d, shared teams %d\n", width, pair, row.PairingCount, row.TeamCount)
	}
	if len(rows) == 0 {
		buf.WriteString("No pairings.\n")
	}

	return buf.Bytes()
}

// ExportOrganizationToText lists every team followed by its members, indented.
func ExportOrganizationToText(org []models.TeamRoster) []byte {
	var buf bytes.Buffer

	for _, r := range org {
		fmt.Fprintf(&buf, "%s (%d)\n", r.Team.Name, len(r.Members))
		for _, m := range r.Members {
			fmt.Fprintf(&buf, "  %s\n", m.Email)
		}
	}
	if len(org) == 0 {
		buf.WriteString("No teams.\n")
	}

	return buf.Bytes()
}

// ExportOrganizationToMarkdown renders the organization as one section per team.
func ExportOrganizationToMarkdown(org []models.TeamRoster) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Organization\n\n")
	fmt.Fprintf(&buf, "**Teams**: %d\n\n", len(org))

	for _, r := range org {
		fmt.Fprintf(&buf, "## %s\n\n", r.Team.Name)
		if len(r.Members) == 0 {
			buf.WriteString("_No members_\n\n")
			continue
		}
		for i, m := range r.Members {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, m.Email)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}
