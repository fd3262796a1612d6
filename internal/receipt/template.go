// Package receipt renders receipts and shift reports as fixed-width text for
// thermal printers.
package receipt

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTemplate []byte

type Template struct {
	Name       string `yaml:"name"`
	PaperWidth int    `yaml:"paper_width"`
	Currency   string `yaml:"currency"`
	Header     struct {
		ShowStoreName bool   `yaml:"show_store_name"`
		ShowAddress   bool   `yaml:"show_address"`
		TextAlign     string `yaml:"text_align"`
	} `yaml:"header"`
	Items struct {
		MaxItemLength int `yaml:"max_item_length"`
	} `yaml:"items"`
	Totals struct {
		ShowSubtotal bool `yaml:"show_subtotal"`
		ShowDiscount bool `yaml:"show_discount"`
	} `yaml:"totals"`
	Footer struct {
		ThankYouMessage string `yaml:"thank_you_message"`
		ReturnPolicy    string `yaml:"return_policy"`
		TextAlign       string `yaml:"text_align"`
	} `yaml:"footer"`
}

// Default returns the built-in template.
func Default() Template {
	t, err := parse(defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("receipt: embedded template: %v", err))
	}
	return t
}

// Load reads a template file. Fields the file leaves out keep the built-in
// values; an empty path returns Default.
func Load(path string) (Template, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read receipt template: %w", err)
	}
	t := Default()
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Template{}, fmt.Errorf("parse receipt template: %w", err)
	}
	t.normalize()
	return t, nil
}

func parse(raw []byte) (Template, error) {
	var t Template
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Template{}, err
	}
	t.normalize()
	return t, nil
}

func (t *Template) normalize() {
	if t.PaperWidth < 16 {
		t.PaperWidth = 32
	}
	if t.Items.MaxItemLength <= 0 || t.Items.MaxItemLength > t.PaperWidth {
		t.Items.MaxItemLength = t.PaperWidth
	}
}
