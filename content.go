package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Content is the site copy shown on the landing page and its fragments.
type Content struct {
	Name      string       `yaml:"name"`
	Headline  string       `yaml:"headline"`
	About     string       `yaml:"about"`
	Designer  Designer     `yaml:"designer"`
	Projects  []Project    `yaml:"projects"`
	Work      []Experience `yaml:"work"`
	Education []Experience `yaml:"education"`
	Social    []Link       `yaml:"social"`
	Tags      []string     `yaml:"tags"`
}

type Designer struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
	Bio  string `yaml:"bio"`
	URL  string `yaml:"url"`
}

type Project struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	Tags        []string `yaml:"tags"`
}

// Experience is one job or one degree.
type Experience struct {
	Title        string   `yaml:"title"`
	Organization string   `yaml:"organization"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end"`
	Logo         string   `yaml:"logo"`
	Highlights   []string `yaml:"highlights"`
}

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
	Icon  string `yaml:"icon"`
}

// LoadContent reads the site copy from a YAML file. Unknown keys are errors
// so typos surface at startup.
func LoadContent(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return ParseContent(data)
}

func ParseContent(data []byte) (*Content, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Content
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if c.Name == "" {
		return nil, fmt.Errorf("parse content: name is required")
	}
	return &c, nil
}
