// Package plot renders a dependency graph as an interactive HTML page.
package plot

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/luapack/internal/depgraph"
)

const (
	chartWidth  = "100%"
	chartHeight = "700px"

	entrySymbolSize  = 28
	moduleSymbolSize = 18
	forceRepulsion   = 400

	entryColor  = "#c23531"
	moduleColor = "#2f4554"
)

// Render writes a force-directed dependency graph page for result to w.
func Render(w io.Writer, result *depgraph.Result) error {
	nodes, links := buildGraphData(result)

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Lua Dependency Graph",
			Subtitle: fmt.Sprintf("%d modules, %d require edges", len(result.Manifest), len(result.Edges)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	graph.AddSeries("modules", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:     "force",
			Force:      &opts.GraphForce{Repulsion: forceRepulsion},
			Roam:       opts.Bool(true),
			EdgeSymbol: []string{"none", "arrow"},
		}),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "right",
		}),
	)

	renderErr := graph.Render(w)
	if renderErr != nil {
		return fmt.Errorf("render graph: %w", renderErr)
	}

	return nil
}

// RenderFile writes the dependency graph page to path.
func RenderFile(path string, result *depgraph.Result) error {
	file, createErr := os.Create(path)
	if createErr != nil {
		return fmt.Errorf("create plot file: %w", createErr)
	}
	defer file.Close()

	return Render(file, result)
}

func buildGraphData(result *depgraph.Result) ([]opts.GraphNode, []opts.GraphLink) {
	keyByPath := make(map[string]string, len(result.Manifest))
	for _, entry := range result.Manifest {
		keyByPath[entry.Path] = entry.Key
	}

	nodes := make([]opts.GraphNode, 0, len(result.Manifest))

	for _, entry := range result.Manifest {
		size := moduleSymbolSize
		color := moduleColor

		if entry.Path == result.EntryPath {
			size = entrySymbolSize
			color = entryColor
		}

		nodes = append(nodes, opts.GraphNode{
			Name:       entry.Key,
			SymbolSize: size,
			ItemStyle:  &opts.ItemStyle{Color: color},
		})
	}

	links := make([]opts.GraphLink, 0, len(result.Edges))
	for _, edge := range result.Edges {
		links = append(links, opts.GraphLink{
			Source: keyByPath[edge.From],
			Target: keyByPath[edge.To],
		})
	}

	return nodes, links
}
