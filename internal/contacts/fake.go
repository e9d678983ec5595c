package contacts

import (
	"github.com/brianvoe/gofakeit/v7"

	"github.com/saravenpi/wavechat/internal/models"
)

// Generate returns n fake contacts with unique numbers. A zero seed gives a
// different set every call.
func Generate(n int, seed uint64) []models.ImportEntry {
	faker := gofakeit.New(seed)
	seen := make(map[string]bool, n)
	entries := make([]models.ImportEntry, 0, n)

	for len(entries) < n {
		phone := "+1" + faker.Phone()
		if !ValidPhone(phone) || seen[phone] {
			continue
		}
		seen[phone] = true
		entries = append(entries, models.ImportEntry{Name: faker.Name(), PhoneNumber: phone})
	}
	return entries
}
