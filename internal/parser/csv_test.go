package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := "Make,Model,Year\nToyota,Camry LE,2020\nNissan,Patrol,2019\n"

	headers, rows, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Make", "Model", "Year"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, "Camry LE", rows[0]["Model"])
	assert.Equal(t, "Nissan", rows[1]["Make"])
}

func TestParseSkipsEmptyRows(t *testing.T) {
	input := "Make,Model\nToyota,Camry\n,\n  ,  \nNissan,Patrol\n"

	_, rows, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestParseStripsBOM(t *testing.T) {
	input := "\ufeffMake,Model\nToyota,Camry\n"

	headers, rows, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Make", headers[0])
	assert.Equal(t, "Toyota", rows[0]["Make"])
}

func TestParseEmptyFile(t *testing.T) {
	_, _, err := Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseReportsLineNumberOnBadRecord(t *testing.T) {
	input := "Make,Model\nToyota,\"Camry\nbroken"

	_, _, err := Parse(strings.NewReader(input))
	require.Error(t, err)
}

func TestRequireColumns(t *testing.T) {
	headers := []string{"Make", "Model", "Year"}

	assert.NoError(t, RequireColumns(headers, "Make", "Model"))
	assert.NoError(t, RequireColumns(headers, ""))

	err := RequireColumns(headers, "Trim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Trim")
}
