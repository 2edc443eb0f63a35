package assets

import (
	"bytes"
	"fmt"
	"html/template"
)

// TemplateSet holds the running header and footer pages of a document.
// Both are html/template sources executed with PageData.
type TemplateSet struct {
	Name   string // Identifier (name or directory path)
	Header string // Header page template HTML content
	Footer string // Footer page template HTML content
}

// PageData is the data passed to header and footer templates.
type PageData struct {
	Title      string
	DocumentID string
	Date       string
}

// DefaultTemplateSetName is the name of the built-in template set.
const DefaultTemplateSetName = "default"

// DefaultStyleName is the name of the built-in CSS style.
const DefaultStyleName = "default"

// RenderHeader executes the header template.
func (ts *TemplateSet) RenderHeader(data PageData) (string, error) {
	return renderTemplate(ts.Name+"/header", ts.Header, data)
}

// RenderFooter executes the footer template.
func (ts *TemplateSet) RenderFooter(data PageData) (string, error) {
	return renderTemplate(ts.Name+"/footer", ts.Footer, data)
}

func renderTemplate(name, content string, data PageData) (string, error) {
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
	}
	return buf.String(), nil
}
