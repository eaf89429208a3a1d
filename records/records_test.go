package records

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVKeepsOrderAndAliases(t *testing.T) {
	input := "\ufeffdataset_name,variable_name,period\n" +
		"some-dataset,b,\n" +
		"some-dataset,a,some-period\n" +
		"some-dataset,c\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var names []string
	for _, row := range rows {
		name, ok := row.String("name", "variable_name")
		require.True(t, ok)
		names = append(names, name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
	assert.Equal(t, []string{"dataset_name", "variable_name", "period"}, rows[0].Fields())

	_, ok := rows[0].Ref("period", "period_name")
	assert.False(t, ok, "blank cell must count as absent")
	period, ok := rows[1].Ref("period", "period_name")
	assert.True(t, ok)
	assert.Equal(t, "some-period", period)
	assert.False(t, rows[2].Has("period"))
	assert.Equal(t, 2, rows[2].Index)
}

func TestReadCSVWithoutHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestShortNameWins(t *testing.T) {
	rec := New(map[string]any{"period": "short", "period_name": "long"})
	v, ok := rec.String("period", "period_name")
	require.True(t, ok)
	assert.Equal(t, "short", v)
	assert.Equal(t, "fallback", rec.StringOr("fallback", "missing"))
}

func TestReadJSONObjectKeepsDocumentOrder(t *testing.T) {
	input := `{"zeta": {"name": "zeta"}, "alpha": {"name": "alpha", "statistics": {"names": ["a"], "values": [1]}}}`

	recs, err := ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "zeta", recs[0].Key)
	assert.Equal(t, "alpha", recs[1].Key)
	assert.Equal(t, 1, recs[1].Index)

	stats, ok := recs[1].Get("statistics")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"names": []any{"a"}, "values": []any{float64(1)}}, stats)
}

func TestReadJSONArray(t *testing.T) {
	recs, err := ReadJSON(strings.NewReader(`[{"variable": "a"}, {"variable": "b"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	name, _ := recs[1].String("name", "variable")
	assert.Equal(t, "b", name)
	assert.Empty(t, recs[1].Key)
}

func TestReadJSONRejectsInvalidInput(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"a": `))
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = ReadJSON(strings.NewReader(`"text"`))
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = ReadJSON(strings.NewReader(`[1, 2]`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "3", Stringify(float64(3)))
	assert.Equal(t, "2.5", Stringify(2.5))
	assert.Equal(t, "true", Stringify(true))
}

func TestReadFrontMatter(t *testing.T) {
	input := `---
label: Some Study
label_de: Eine Studie
config:
  variables:
    label-table: true
topic_languages: [en, de]
---

Some description.
`
	rec, err := ReadFrontMatter(strings.NewReader(input), "description")
	require.NoError(t, err)

	assert.Equal(t, []string{"label", "label_de", "config", "topic_languages", "description"}, rec.Fields())
	assert.Equal(t, "Some Study", rec.StringOr("", "label"))
	assert.Equal(t, "Some description.", rec.StringOr("", "description"))

	config, _ := rec.Get("config")
	assert.Equal(t, map[string]any{"variables": map[string]any{"label-table": true}}, config)
}

func TestReadFrontMatterEdgeCases(t *testing.T) {
	rec, err := ReadFrontMatter(strings.NewReader("Only text"), "description")
	require.NoError(t, err)
	assert.Equal(t, []string{"description"}, rec.Fields())

	_, err = ReadFrontMatter(strings.NewReader("---\nlabel: x\n"), "description")
	assert.Error(t, err)

	_, err = ReadFrontMatter(strings.NewReader("---\n- a\n- b\n---\n"), "description")
	assert.Error(t, err)

	rec, err = ReadFrontMatter(strings.NewReader("\n\n---\nlabel: x\n---\n"), "description")
	require.NoError(t, err)
	assert.Equal(t, []string{"label"}, rec.Fields())

	rec, err = ReadFrontMatter(strings.NewReader("---\n---\nText --- mit Strichen\n"), "description")
	require.NoError(t, err)
	assert.Equal(t, "Text --- mit Strichen", rec.StringOr("", "description"))

	_, err = ReadFrontMatter(strings.NewReader("---\nlabel: [x\n---\n"), "description")
	assert.Error(t, err)
}

func TestJSONRecordsKeepRawText(t *testing.T) {
	recs, err := ReadJSON(strings.NewReader(`[{"language": "en", "topics": [{"b": 1, "a": 2}]}]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, `{"language": "en", "topics": [{"b": 1, "a": 2}]}`, recs[0].Raw)
}
