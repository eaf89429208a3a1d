package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ddionrails/models"
)

func TestFormatReference(t *testing.T) {
	tests := []struct {
		name string
		in   models.Publication
		want string
	}{
		{"full", models.Publication{Author: "Doe, J.", Year: "2018", Title: "Some Publication.", DOI: "10.1/x"},
			"Doe, J. (2018). Some Publication. doi:10.1/x"},
		{"defaults", models.Publication{}, "Unknown Authors (n.d.). Untitled."},
		{"cite wins", models.Publication{Cite: "Doe 2018", Title: "ignored"}, "Doe 2018"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatReference(tt.in))
		})
	}
}

func TestBuildBibliographyOrder(t *testing.T) {
	refs := BuildBibliography([]models.Publication{
		{Name: "old", Year: "2001", Author: "A"},
		{Name: "new-b", Year: "2020", Author: "b"},
		{Name: "new-a", Year: "2020", Author: "A"},
	})
	var names []string
	for _, r := range refs {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"new-a", "new-b", "old"}, names)
}
