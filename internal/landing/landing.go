// Package landing holds the copy of the public marketing page.
package landing

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yml
var defaultContent []byte

type Hero struct {
	Title        string `yaml:"title"`
	Subtitle     string `yaml:"subtitle"`
	PrimaryCTA   string `yaml:"primary_cta"`
	SecondaryCTA string `yaml:"secondary_cta"`
}

type Item struct {
	Icon        string `yaml:"icon"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type Section struct {
	Title string `yaml:"title"`
	Items []Item `yaml:"items"`
}

type Quote struct {
	Text   string `yaml:"text"`
	Author string `yaml:"author"`
	Role   string `yaml:"role"`
}

type Testimonials struct {
	Title string `yaml:"title"`
	Quote Quote  `yaml:"quote"`
}

type CTA struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Button   string `yaml:"button"`
}

type Footer struct {
	Copyright string `yaml:"copyright"`
}

// Content is everything the landing page shows.
type Content struct {
	Brand        string       `yaml:"brand"`
	Hero         Hero         `yaml:"hero"`
	Features     Section      `yaml:"features"`
	HowItWorks   Section      `yaml:"how_it_works"`
	Testimonials Testimonials `yaml:"testimonials"`
	FinalCTA     CTA          `yaml:"final_cta"`
	Footer       Footer       `yaml:"footer"`
}

// Parse decodes landing copy and checks the parts every page needs.
func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse landing content: %w", err)
	}
	if c.Brand == "" || c.Hero.Title == "" {
		return nil, errors.New("landing content needs a brand and a hero title")
	}
	return &c, nil
}

// Default returns the embedded copy.
func Default() (*Content, error) {
	return Parse(defaultContent)
}
