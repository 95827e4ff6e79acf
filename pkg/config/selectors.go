package config

import (
	"fmt"
	"os"
	"sort"

	"FlyerScraper/internal/models"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// LoadSelectors reads and validates the selector file.
func LoadSelectors(path string) (models.SelectorConfig, error) {
	var sel models.SelectorConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("failed to read selectors file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}
	if err := ValidateSelectors(sel); err != nil {
		return sel, err
	}
	return sel, nil
}

// SaveSelectors validates sel and writes it to path.
func SaveSelectors(path string, sel models.SelectorConfig) error {
	if err := ValidateSelectors(sel); err != nil {
		return err
	}
	data, err := yaml.Marshal(sel)
	if err != nil {
		return fmt.Errorf("failed to encode selectors: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write selectors file: %w", err)
	}
	return nil
}

// ValidateSelectors checks that every required selector is set and that all
// selectors, including the derived anchor candidates, compile.
func ValidateSelectors(sel models.SelectorConfig) error {
	required := map[string]string{
		models.SelName:               sel.Name,
		models.SelStore:              sel.Store,
		models.SelBrand:              sel.Brand,
		models.SelDateValid:          sel.DateValid,
		models.SelPricePrimary:       sel.PricePrimary,
		models.SelPriceFallbackValue: sel.PriceFallbackValue,
		models.SelPriceFallbackNote:  sel.PriceFallbackNote,
	}
	var missing []string
	for field, v := range required {
		if v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &models.ConfigError{Subjects: missing, Reason: "selector(s) missing"}
	}

	fields := sel.ByField()
	fields["store_anchor"] = sel.Store + " > a"
	fields["brand_anchor"] = sel.Brand + " > a"

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := cascadia.Compile(fields[name]); err != nil {
			return &models.ConfigError{
				Subjects: []string{name},
				Reason:   "has a bad selector format",
				Err:      err,
			}
		}
	}
	return nil
}
