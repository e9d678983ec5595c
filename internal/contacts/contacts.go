// Package contacts holds the client's local address book and the import
// sources feeding a batch import: CSV text, generated fake contacts and the
// address book itself.
package contacts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/saravenpi/wavechat/internal/models"
)

// PhonePattern is the client-side check applied to every imported number.
var PhonePattern = regexp.MustCompile(`^\+?\d{10,}$`)

// ValidPhone reports whether s, trimmed, is an acceptable phone number.
func ValidPhone(s string) bool {
	return PhonePattern.MatchString(strings.TrimSpace(s))
}

type Contact struct {
	Name         string   `yaml:"name"`
	PhoneNumbers []string `yaml:"phone_numbers,omitempty"`
}

// Book is a directory of YAML files, one per contact.
type Book struct {
	dir string

	mu        sync.RWMutex
	cache     []Contact
	lookup    map[string]string
	cacheTime time.Time
	cacheTTL  time.Duration
}

func NewBook(dir string) *Book {
	return &Book{dir: dir, cacheTTL: 30 * time.Second}
}

func (b *Book) Dir() string {
	return b.dir
}

func (b *Book) ensureDir() error {
	return os.MkdirAll(b.dir, 0755)
}

// sanitizeFilename converts a contact name to a safe filename.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, ":", "-")
	return name
}

func (b *Book) filePath(name string) string {
	return filepath.Join(b.dir, sanitizeFilename(name)+".yml")
}

// Save writes a contact, replacing any contact with the same name.
func (b *Book) Save(contact Contact) error {
	contact.Name = strings.TrimSpace(contact.Name)
	if contact.Name == "" {
		return fmt.Errorf("contact name cannot be empty")
	}
	if len(contact.PhoneNumbers) == 0 {
		return fmt.Errorf("at least one phone number is required")
	}
	for _, phone := range contact.PhoneNumbers {
		if !ValidPhone(phone) {
			return fmt.Errorf("invalid phone number %q", phone)
		}
	}

	if err := b.ensureDir(); err != nil {
		return fmt.Errorf("failed to create contacts directory: %w", err)
	}

	data, err := yaml.Marshal(&contact)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	if err := os.WriteFile(b.filePath(contact.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write contact file: %w", err)
	}

	b.Invalidate()
	return nil
}

// Delete removes a contact's YAML file.
func (b *Book) Delete(name string) error {
	if err := os.Remove(b.filePath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("contact not found: %s", name)
		}
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	b.Invalidate()
	return nil
}

// List returns all contacts sorted by name. Results are cached for 30
// seconds; unreadable files are skipped.
func (b *Book) List() ([]Contact, error) {
	b.mu.RLock()
	if time.Since(b.cacheTime) < b.cacheTTL && b.cache != nil {
		defer b.mu.RUnlock()
		return b.cache, nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Since(b.cacheTime) < b.cacheTTL && b.cache != nil {
		return b.cache, nil
	}

	if err := b.ensureDir(); err != nil {
		return nil, fmt.Errorf("failed to create contacts directory: %w", err)
	}

	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts directory: %w", err)
	}

	contacts := []Contact{}
	lookup := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(b.dir, entry.Name()))
		if err != nil {
			continue
		}

		var contact Contact
		if err := yaml.Unmarshal(data, &contact); err != nil {
			continue
		}

		contacts = append(contacts, contact)
		for _, phone := range contact.PhoneNumbers {
			lookup[NormalizePhone(phone)] = contact.Name
		}
	}

	sort.Slice(contacts, func(i, j int) bool {
		return strings.ToLower(contacts[i].Name) < strings.ToLower(contacts[j].Name)
	})

	b.cache = contacts
	b.lookup = lookup
	b.cacheTime = time.Now()

	return contacts, nil
}

// Invalidate forces the next List to re-read the directory.
func (b *Book) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cacheTime = time.Time{}
}

// NameFor returns the address book name for a phone number, or "".
func (b *Book) NameFor(phone string) string {
	if phone == "" {
		return ""
	}
	if _, err := b.List(); err != nil {
		return ""
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lookup[NormalizePhone(phone)]
}

// Entries flattens the address book into import entries, one per valid
// phone number.
func (b *Book) Entries() ([]models.ImportEntry, error) {
	contacts, err := b.List()
	if err != nil {
		return nil, err
	}

	var entries []models.ImportEntry
	for _, c := range contacts {
		for _, phone := range c.PhoneNumbers {
			phone = strings.TrimSpace(phone)
			if !ValidPhone(phone) {
				continue
			}
			entries = append(entries, models.ImportEntry{Name: c.Name, PhoneNumber: phone})
		}
	}
	return entries, nil
}

// NormalizePhone keeps only digits and a leading plus.
func NormalizePhone(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
