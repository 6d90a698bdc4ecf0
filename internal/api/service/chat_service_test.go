package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/internal/api/models"
	"studio/internal/sandbox"
)

func TestFailureKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sanitization", &sandbox.SanitizationError{Line: 2, Msg: "import of os"}, models.FailureSanitization},
		{"timeout", &sandbox.ExecutionTimeoutError{}, models.FailureTimeout},
		{"empty result", &sandbox.EmptyResultError{Binding: "result"}, models.FailureEmptyResult},
		{"runtime fault", &sandbox.RuntimeFaultError{Msg: "division by zero"}, models.FailureRuntimeFault},
		{"unknown error", assert.AnError, models.FailureRuntimeFault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureKind(tt.err))
		})
	}
}

func TestEncodeArtifact(t *testing.T) {
	payload, err := encodeArtifact(&sandbox.Artifact{
		Kind:   "scalar",
		Value:  int64(42),
		Stdout: "computed\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "scalar", payload.Kind)
	assert.JSONEq(t, "42", string(payload.Data))
	assert.Equal(t, "computed\n", payload.Stdout)
}

func TestDatasetPromptSection(t *testing.T) {
	dataset := &models.Dataset{
		Name:     "Conflict events",
		RowCount: 120,
		Schema: models.DatasetSchema{Columns: []models.DatasetColumn{
			{Name: "country", DataType: "string"},
			{Name: "fatalities", DataType: "integer"},
		}},
	}
	section := datasetPromptSection(dataset)
	assert.Contains(t, section, `"Conflict events" (120 rows)`)
	assert.Contains(t, section, "- country (string)")
	assert.Contains(t, section, "- fatalities (integer)")
}

func TestAnalysisSystemPromptNamesTheContract(t *testing.T) {
	prompt := analysisSystemPrompt()
	assert.Contains(t, prompt, "result")
	assert.Contains(t, prompt, "df")
	assert.Contains(t, prompt, "charts")
	assert.Contains(t, prompt, "frames")
}
