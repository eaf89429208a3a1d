package services

import (
	"fmt"
	"sort"
	"strings"

	"ddionrails/models"
)

// Reference ist eine formatierte Literaturangabe.
type Reference struct {
	Name string `json:"name"`
	Text string `json:"text"`
	DOI  string `json:"doi,omitempty"`
	URL  string `json:"url,omitempty"`
}

// BuildBibliography formatiert Publikationen, neueste zuerst, bei gleichem Jahr nach Autor.
func BuildBibliography(publications []models.Publication) []Reference {
	sorted := append([]models.Publication(nil), publications...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year > sorted[j].Year
		}
		return strings.ToLower(sorted[i].Author) < strings.ToLower(sorted[j].Author)
	})
	refs := make([]Reference, 0, len(sorted))
	for _, p := range sorted {
		refs = append(refs, Reference{Name: p.Name, Text: FormatReference(p), DOI: p.DOI, URL: p.URL})
	}
	return refs
}

// FormatReference gibt eine kompakte Literaturangabe zurück. Eine vorhandene
// Zitierweise (cite) wird unverändert übernommen.
func FormatReference(p models.Publication) string {
	if cite := strings.TrimSpace(p.Cite); cite != "" {
		return cite
	}
	authors := strings.TrimSpace(p.Author)
	if authors == "" {
		authors = "Unknown Authors"
	}
	year := strings.TrimSpace(p.Year)
	if year == "" {
		year = "n.d."
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "Untitled"
	}
	ref := fmt.Sprintf("%s (%s). %s.", authors, year, strings.TrimSuffix(title, "."))
	if p.DOI != "" {
		ref += " doi:" + p.DOI
	}
	return ref
}
