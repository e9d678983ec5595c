package contacts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVDropsInvalidLines(t *testing.T) {
	input := strings.Join([]string{
		"phone,name",
		"+15551234567",
		"12345",
		"5551234568;Ada Lovelace",
		"Grace Hopper, +445551234569",
		"",
		"555-123-4570",
		"+15551234567,Duplicate",
		"a,b,c",
	}, "\n")

	preview, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"+15551234567", "5551234568", "+445551234569"}, preview.Numbers())
	assert.Equal(t, "Ada Lovelace", preview.Entries[1].Name)
	assert.Equal(t, "Grace Hopper", preview.Entries[2].Name)

	var rejectedLines []int
	for _, r := range preview.Rejected {
		rejectedLines = append(rejectedLines, r.Line)
	}
	assert.Equal(t, []int{1, 3, 7, 9}, rejectedLines)
}

func TestParseCSVHandlesCRLFAndBOM(t *testing.T) {
	preview, err := ParseCSV(strings.NewReader("\ufeff+15551234567\r\n5551234568\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"+15551234567", "5551234568"}, preview.Numbers())
	assert.Empty(t, preview.Rejected)
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("1234567890"))
	assert.True(t, ValidPhone(" +12345678901 "))
	assert.False(t, ValidPhone("123456789"))
	assert.False(t, ValidPhone("+1 234 567 8901"))
	assert.False(t, ValidPhone("++1234567890"))
}

func TestPreviewFilter(t *testing.T) {
	preview, err := ParseCSV(strings.NewReader("1234567890\n1234567891\nbad"))
	require.NoError(t, err)

	kept := preview.Filter(func(phone string) bool { return phone != "1234567890" })
	assert.Equal(t, []string{"1234567891"}, kept.Numbers())
	assert.Len(t, kept.Rejected, 1)
}

func TestGenerate(t *testing.T) {
	entries := Generate(25, 42)
	require.Len(t, entries, 25)

	seen := map[string]bool{}
	for _, e := range entries {
		assert.True(t, ValidPhone(e.PhoneNumber), e.PhoneNumber)
		assert.NotEmpty(t, e.Name)
		assert.False(t, seen[e.PhoneNumber])
		seen[e.PhoneNumber] = true
	}

	assert.Equal(t, entries, Generate(25, 42))
}
