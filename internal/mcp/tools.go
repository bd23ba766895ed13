package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/luapack/pkg/luapack"
)

// Tool name constants.
const (
	ToolNameAnalyze = "luapack_analyze"
	ToolNameBundle  = "luapack_bundle"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyEntry indicates the entry parameter is empty.
	ErrEmptyEntry = errors.New("entry parameter is required and must not be empty")
	// ErrEntryNotAbsolute indicates the entry is not an absolute path.
	ErrEntryNotAbsolute = errors.New("entry must be an absolute path")
	// ErrEmptyOutput indicates the output parameter is empty.
	ErrEmptyOutput = errors.New("output parameter is required and must not be empty")
	// ErrNegativeLimit indicates the max_dependencies parameter is negative.
	ErrNegativeLimit = errors.New("max_dependencies must not be negative")
)

// Input types (auto-generate JSON schemas via struct tags).

// AnalyzeInput is the input schema for the luapack_analyze tool.
type AnalyzeInput struct {
	Entry           string   `json:"entry"                      jsonschema:"absolute path to the Lua entry script"`
	SearchRoots     []string `json:"search_roots,omitempty"     jsonschema:"extra module search roots after the entry directory"`
	MaxDependencies int      `json:"max_dependencies,omitempty" jsonschema:"traversal node budget including the entry (default: 36)"`
}

// BundleInput is the input schema for the luapack_bundle tool.
type BundleInput struct {
	Entry           string   `json:"entry"                      jsonschema:"absolute path to the Lua entry script"`
	Output          string   `json:"output"                     jsonschema:"path the single-file bundle is written to"`
	SearchRoots     []string `json:"search_roots,omitempty"     jsonschema:"extra module search roots after the entry directory"`
	MaxDependencies int      `json:"max_dependencies,omitempty" jsonschema:"traversal node budget including the entry (default: 36)"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// analyzeResult is the structured payload of the analyze tool.
type analyzeResult struct {
	Entry   string       `json:"entry"`
	Files   []string     `json:"files"`
	Modules []moduleInfo `json:"modules"`
}

// bundleResult is the structured payload of the bundle tool.
type bundleResult struct {
	Output  string `json:"output"`
	Modules int    `json:"modules"`
}

type moduleInfo struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

func handleAnalyze(
	_ context.Context, _ *mcpsdk.CallToolRequest, input AnalyzeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	validateErr := validateEntryInput(input.Entry, input.MaxDependencies)
	if validateErr != nil {
		return errorResult(validateErr)
	}

	result, err := luapack.AnalyzeGraph(input.Entry, analyzeOptions(input.SearchRoots, input.MaxDependencies)...)
	if err != nil {
		return errorResult(err)
	}

	modules := make([]moduleInfo, 0, len(result.Manifest))
	for _, entry := range result.Manifest {
		modules = append(modules, moduleInfo{Key: entry.Key, Path: entry.Path})
	}

	return jsonResult(analyzeResult{
		Entry:   result.EntryPath,
		Files:   result.Files,
		Modules: modules,
	})
}

func handleBundle(
	_ context.Context, _ *mcpsdk.CallToolRequest, input BundleInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	validateErr := validateEntryInput(input.Entry, input.MaxDependencies)
	if validateErr != nil {
		return errorResult(validateErr)
	}

	if input.Output == "" {
		return errorResult(ErrEmptyOutput)
	}

	result, err := luapack.BundleEntry(input.Entry, input.Output,
		analyzeOptions(input.SearchRoots, input.MaxDependencies)...)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(bundleResult{
		Output:  input.Output,
		Modules: len(result.Manifest),
	})
}

func analyzeOptions(searchRoots []string, maxDependencies int) []luapack.Option {
	opts := []luapack.Option{luapack.WithSearchRoots(searchRoots...)}
	if maxDependencies > 0 {
		opts = append(opts, luapack.WithMaxDependencies(maxDependencies))
	}

	return opts
}

// validateEntryInput checks common entry input constraints.
func validateEntryInput(entry string, maxDependencies int) error {
	if entry == "" {
		return ErrEmptyEntry
	}

	if !filepath.IsAbs(entry) {
		return ErrEntryNotAbsolute
	}

	if maxDependencies < 0 {
		return ErrNegativeLimit
	}

	return nil
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
