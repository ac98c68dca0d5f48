package categorize

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var defaultDictionary []byte

// DictionaryEntry maps a description keyword to a category.
type DictionaryEntry struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

// Dictionary is an ordered keyword table. Order is significant: Lookup
// returns the first entry whose keyword appears in the description.
type Dictionary struct {
	entries []DictionaryEntry
}

type dictionaryFile struct {
	Merchants []DictionaryEntry `yaml:"merchants"`
}

// ParseDictionary decodes a YAML dictionary document.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var file dictionaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("could not parse merchant dictionary: %w", err)
	}

	d := &Dictionary{entries: make([]DictionaryEntry, 0, len(file.Merchants))}
	for i, e := range file.Merchants {
		keyword := strings.ToLower(strings.TrimSpace(e.Keyword))
		category := strings.TrimSpace(e.Category)
		if keyword == "" || category == "" {
			return nil, fmt.Errorf("merchant dictionary entry %d: keyword and category are required", i)
		}
		d.entries = append(d.entries, DictionaryEntry{Keyword: keyword, Category: category})
	}
	return d, nil
}

// DefaultDictionary returns the dictionary compiled into the binary.
func DefaultDictionary() *Dictionary {
	d, err := ParseDictionary(defaultDictionary)
	if err != nil {
		panic(err)
	}
	return d
}

// LoadDictionary reads the dictionary at path, or the built-in one when path
// is empty.
func LoadDictionary(path string) (*Dictionary, error) {
	if path == "" {
		return DefaultDictionary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read merchant dictionary %s: %w", path, err)
	}
	return ParseDictionary(data)
}

// Lookup returns the category of the first entry contained in description.
func (d *Dictionary) Lookup(description string) (string, bool) {
	if d == nil {
		return "", false
	}
	lower := strings.ToLower(description)
	for _, e := range d.entries {
		if strings.Contains(lower, e.Keyword) {
			return e.Category, true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}
