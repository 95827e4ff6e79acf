package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/mazen160/go-random"
)

// UniqueStrings returns slice without repeated entries, keeping first occurrences in order.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	uniqueSlice := []string{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			uniqueSlice = append(uniqueSlice, entry)
		}
	}
	return uniqueSlice
}

// ReadList turns a one-entry-per-line text into a list. Lines starting with
// '#' and blank lines are skipped; entries are trimmed and lower-cased.
// Repeated entries are dropped, since scraping a term twice would turn all of
// its listings into duplicates.
func ReadList(input string) []string {
	var out []string
	for _, line := range strings.Split(input, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		entry := strings.ToLower(strings.TrimSpace(line))
		if entry == "" {
			continue
		}
		out = append(out, entry)
	}
	return UniqueStrings(out)
}

// LoadListFile reads a list file, creating it empty when it does not exist yet.
func LoadListFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return "", fmt.Errorf("create list file %s: %w", path, err)
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read list file %s: %w", path, err)
	}
	return string(data), nil
}

const suffixLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// RandomSuffix returns n random ASCII letters.
func RandomSuffix(n int) string {
	// The insecure source never fails.
	s, _ := random.Random(n, suffixLetters, false)
	return s
}
