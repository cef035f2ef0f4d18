package schemas

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestValidateDocument_Proposal(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name: "valid with list fields",
			doc:  `{"name":"徳川家康","youtubeTitle":"【徳川家康に学ぶ】3つの教訓","summary":"s","tags":["a"],"sourceHints":"a,b"}`,
		},
		{
			name:      "missing summary",
			doc:       `{"name":"徳川家康","youtubeTitle":"t"}`,
			wantField: "summary",
		},
		{
			name:      "empty name",
			doc:       `{"name":"","youtubeTitle":"t","summary":"s"}`,
			wantField: "name",
		},
		{
			name:      "name too long",
			doc:       `{"name":"` + strings.Repeat("名", 33) + `","youtubeTitle":"t","summary":"s"}`,
			wantField: "name",
		},
		{
			name:      "summary too long",
			doc:       `{"name":"n","youtubeTitle":"t","summary":"` + strings.Repeat("あ", 281) + `"}`,
			wantField: "summary",
		},
		{
			name:      "tags wrong type",
			doc:       `{"name":"n","youtubeTitle":"t","summary":"s","tags":42}`,
			wantField: "tags",
		},
		{
			name:      "not an object",
			doc:       `["name"]`,
			wantField: "(root)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(Proposal, decode(t, tt.doc))
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.First().Field)
		})
	}
}

func TestValidateDocument_Figure(t *testing.T) {
	ok := `{"pk":"figure#001","name":"織田信長","status":"ready","createdAt":1700000000000,"video":{"durationMs":1200}}`
	assert.NoError(t, ValidateDocument(Figure, decode(t, ok)))

	missingStatus := `{"pk":"figure#001","name":"織田信長"}`
	assert.Error(t, ValidateDocument(Figure, decode(t, missingStatus)))

	badTags := `{"pk":"figure#001","name":"織田信長","status":"ready","tags":"a,b"}`
	assert.Error(t, ValidateDocument(Figure, decode(t, badTags)))
}

func TestValidateDocument_UnknownSchema(t *testing.T) {
	err := ValidateDocument("missing.schema.json", map[string]any{})
	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "schema not found")
}

func TestValidateDocument_ReportsFieldsInDeclaredOrder(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		fields []string
	}{
		{
			name:   "title before summary",
			doc:    `{"name":"n","youtubeTitle":"","summary":""}`,
			fields: []string{"youtubeTitle", "summary"},
		},
		{
			name:   "missing properties are named",
			doc:    `{"name":""}`,
			fields: []string{"name", "youtubeTitle", "summary"},
		},
		{
			name:   "list fields after required ones",
			doc:    `{"name":"n","youtubeTitle":"t","summary":" ","tags":42}`,
			fields: []string{"summary", "tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(Proposal, decode(t, tt.doc))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)

			var fields []string
			for _, fe := range ve.Errors {
				if len(fields) == 0 || fields[len(fields)-1] != fe.Field {
					fields = append(fields, fe.Field)
				}
			}
			assert.Equal(t, tt.fields, fields)
			assert.Equal(t, tt.fields[0], ve.First().Field)
		})
	}
}

func TestPropertyOrder(t *testing.T) {
	order, err := propertyOrder([]byte(`{"properties":{"b":{"type":"string"},"a":{"properties":{"z":{}}},"c":{}}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"b": 0, "a": 1, "c": 2}, order)

	order, err = propertyOrder([]byte(`{"type":"string"}`))
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestValidateDocument_BlankRequiredStrings(t *testing.T) {
	err := ValidateDocument(Proposal, decode(t, `{"name":"  ","youtubeTitle":"t","summary":"s"}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.First().Field)
}
