package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func writeLua(t *testing.T, dir, name, src string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	return path
}

func TestHandleAnalyze_ResolvesClosure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := writeLua(t, dir, "main.lua", "local u = require(\"util\")\nprint(u)\n")
	writeLua(t, dir, "util.lua", "return {}\n")

	input := AnalyzeInput{Entry: entry}

	result, output, err := handleAnalyze(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "util.lua")

	payload, ok := output.Data.(analyzeResult)
	require.True(t, ok)
	assert.Len(t, payload.Files, 1)
	assert.Len(t, payload.Modules, 2)
}

func TestHandleAnalyze_EmptyEntry(t *testing.T) {
	t.Parallel()

	result, _, err := handleAnalyze(context.Background(), &mcpsdk.CallToolRequest{}, AnalyzeInput{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "entry parameter is required")
}

func TestHandleAnalyze_RelativeEntry(t *testing.T) {
	t.Parallel()

	input := AnalyzeInput{Entry: "main.lua"}

	result, _, err := handleAnalyze(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "absolute path")
}

func TestHandleAnalyze_NegativeLimit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := writeLua(t, dir, "main.lua", "print(1)\n")

	input := AnalyzeInput{Entry: entry, MaxDependencies: -1}

	result, _, err := handleAnalyze(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleAnalyze_MissingEntry_ReportsError(t *testing.T) {
	t.Parallel()

	input := AnalyzeInput{Entry: filepath.Join(t.TempDir(), "absent.lua")}

	result, _, err := handleAnalyze(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "absent.lua")
}

func TestHandleBundle_WritesBundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := writeLua(t, dir, "main.lua", "local u = require(\"util\")\nprint(u)\n")
	writeLua(t, dir, "util.lua", "return {}\n")
	output := filepath.Join(dir, "bundle.lua")

	input := BundleInput{Entry: entry, Output: output}

	result, toolOutput, err := handleBundle(context.Background(), &mcpsdk.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	payload, ok := toolOutput.Data.(bundleResult)
	require.True(t, ok)
	assert.Equal(t, 2, payload.Modules)

	contents, readErr := os.ReadFile(output)
	require.NoError(t, readErr)
	assert.Contains(t, string(contents), `_MODULES["util"]`)
}

func TestHandleBundle_EmptyOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entry := writeLua(t, dir, "main.lua", "print(1)\n")

	result, _, err := handleBundle(context.Background(), &mcpsdk.CallToolRequest{}, BundleInput{Entry: entry})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "output parameter is required")
}
