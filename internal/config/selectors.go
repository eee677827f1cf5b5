package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"uiverse-scraper/internal/browser"
)

// LoadVocabulary overlays the YAML vocabulary file onto the compiled-in
// defaults. Lists present in the file replace the default list wholesale.
func LoadVocabulary(filePath string) (browser.Vocabulary, error) {
	vocab := browser.DefaultVocabulary()
	if filePath == "" {
		return vocab, nil
	}

	if _, err := os.Stat(filePath); err != nil {
		return vocab, fmt.Errorf("selectors file not found: %s: %w", filePath, err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return vocab, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&vocab); err != nil {
		return vocab, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateVocabulary(&vocab); err != nil {
		return vocab, err
	}

	return vocab, nil
}

// VocabularyPath resolves the configured selectors file relative to the
// directory holding the config file.
func (c *Config) VocabularyPath(configPath string) string {
	if c.SelectorsFile == "" || filepath.IsAbs(c.SelectorsFile) || configPath == "" {
		return c.SelectorsFile
	}
	return filepath.Join(filepath.Dir(configPath), c.SelectorsFile)
}

func validateVocabulary(v *browser.Vocabulary) error {
	if len(v.PanelLabels) == 0 {
		return fmt.Errorf("panel_labels is required")
	}
	if len(v.HTMLTabLabels) == 0 {
		return fmt.Errorf("html_tab_labels is required")
	}
	if len(v.CSSTabLabels) == 0 {
		return fmt.Errorf("css_tab_labels is required")
	}
	if len(v.ClickableSelectors) == 0 {
		return fmt.Errorf("clickable_selectors is required")
	}
	if len(v.HTMLCodeSelectors) == 0 || len(v.CSSCodeSelectors) == 0 {
		return fmt.Errorf("html_code_selectors and css_code_selectors are required")
	}
	if v.CodeWaitSelector == "" {
		return fmt.Errorf("code_wait_selector is required")
	}
	if v.StateSelector == "" {
		return fmt.Errorf("state_selector is required")
	}

	return nil
}
