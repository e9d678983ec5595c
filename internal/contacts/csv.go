package contacts

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/saravenpi/wavechat/internal/models"
)

// RejectedLine is an input line that failed validation.
type RejectedLine struct {
	Line int
	Text string
}

// Preview is what an import would send, before it is sent.
type Preview struct {
	Entries  []models.ImportEntry
	Rejected []RejectedLine
}

// Numbers returns the phone numbers of the accepted entries.
func (p Preview) Numbers() []string {
	numbers := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		numbers[i] = e.PhoneNumber
	}
	return numbers
}

// Filter keeps only the entries whose number keep reports true for.
func (p Preview) Filter(keep func(phone string) bool) Preview {
	out := Preview{Rejected: p.Rejected}
	for _, e := range p.Entries {
		if keep(e.PhoneNumber) {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// ParseCSV reads one contact per line. A line is either a phone number alone
// or a phone number and a name in either order, separated by a comma or a
// semicolon. Blank lines are ignored; lines without a field matching
// PhonePattern are rejected. Repeated numbers are kept once.
func ParseCSV(r io.Reader) (Preview, error) {
	var preview Preview
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if raw == "" {
			continue
		}

		entry, ok := parseLine(raw)
		if !ok {
			preview.Rejected = append(preview.Rejected, RejectedLine{Line: lineNo, Text: raw})
			continue
		}
		if seen[entry.PhoneNumber] {
			continue
		}
		seen[entry.PhoneNumber] = true
		preview.Entries = append(preview.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return preview, fmt.Errorf("failed to read csv: %w", err)
	}

	return preview, nil
}

func parseLine(line string) (models.ImportEntry, bool) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' })
	for i := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(fields[i]), `"`)
	}

	switch len(fields) {
	case 1:
		if ValidPhone(fields[0]) {
			return models.ImportEntry{PhoneNumber: fields[0]}, true
		}
	case 2:
		if ValidPhone(fields[0]) {
			return models.ImportEntry{PhoneNumber: fields[0], Name: fields[1]}, true
		}
		if ValidPhone(fields[1]) {
			return models.ImportEntry{PhoneNumber: fields[1], Name: fields[0]}, true
		}
	}
	return models.ImportEntry{}, false
}
