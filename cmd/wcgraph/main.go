// wcgraph renders a working copy's effective node tree (BASE rows
// overlaid by WORKING rows) as a Graphviz graph, either as a raw .dot
// file or, via goccy/go-graphviz, as a rendered PNG.
package main

import (
	"os"
	"sort"
	"strings"

	"github.com/emicklei/dot"
	graphviz "github.com/goccy/go-graphviz"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ardentvc/wcengine/internal/pathmodel"
	"github.com/ardentvc/wcengine/internal/version"
	"github.com/ardentvc/wcengine/internal/wcdb"
)

func main() {
	var (
		app        = kingpin.New("wcgraph", "Render a working copy's node tree as a Graphviz graph.")
		root       = app.Arg("root", "Working copy root directory.").Required().String()
		outputDot  = app.Flag("dot", "Dot file to write.").String()
		outputPNG  = app.Flag("png", "PNG file to render, via goccy/go-graphviz.").String()
		debug      = app.Flag("debug", "Enable debug-level logging.").Bool()
	)
	app.UsageTemplate(kingpin.CompactUsageTemplate).Version(version.Print("wcgraph")).Author("ardentvc")
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug {
		logger.Level = logrus.DebugLevel
	}
	logger.Infof("%v", version.Print("wcgraph"))

	db, err := wcdb.Open(logger, pathmodel.FromOSPath(*root))
	if err != nil {
		logger.Fatalf("failed to open working copy at %s: %v", *root, err)
	}
	defer db.Close()

	relpaths, err := db.AllRelpaths()
	if err != nil {
		logger.Fatalf("failed to list working copy contents: %v", err)
	}

	g := buildGraph(db, relpaths)

	if *outputDot != "" {
		if err := os.WriteFile(*outputDot, []byte(g.String()), 0o644); err != nil {
			logger.Fatalf("failed to write %s: %v", *outputDot, err)
		}
		logger.Infof("wrote %s", *outputDot)
	}

	if *outputPNG != "" {
		if err := renderPNG(g, *outputPNG); err != nil {
			logger.Fatalf("failed to render %s: %v", *outputPNG, err)
		}
		logger.Infof("wrote %s", *outputPNG)
	}

	if *outputDot == "" && *outputPNG == "" {
		os.Stdout.WriteString(g.String())
	}
}

// buildGraph builds one dot.Node per path, edged to its parent
// directory, labeling each node with its effective status/kind. Nodes
// are created in lexical path order so that a parent directory's node
// always exists by the time a child edge references it, mirroring the
// teacher's ParseGitImport/createGraphEdges's sorted-replay idiom.
func buildGraph(db *wcdb.DB, relpaths []string) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	nodes := map[string]dot.Node{"": g.Node("(root)")}

	sorted := append([]string(nil), relpaths...)
	sort.Strings(sorted)

	for _, relpath := range sorted {
		info, err := db.ReadInfo(relpath)
		label := relpath
		if err == nil {
			label = relpath + "\n" + string(info.Status) + " " + string(info.Kind)
		}
		node := g.Node(label)
		nodes[relpath] = node

		parent := parentOf(relpath)
		parentNode, ok := nodes[parent]
		if !ok {
			parentNode = g.Node("(root)")
		}
		g.Edge(parentNode, node)
	}
	return g
}

func parentOf(relpath string) string {
	if i := strings.LastIndexByte(relpath, '/'); i >= 0 {
		return relpath[:i]
	}
	return ""
}

func renderPNG(g *dot.Graph, path string) error {
	gv := graphviz.New()
	parsed, err := graphviz.ParseBytes([]byte(g.String()))
	if err != nil {
		return err
	}
	defer parsed.Close()
	return gv.RenderFilename(parsed, graphviz.PNG, path)
}
