package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"
	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/nav"
	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"
)

type graphCmd struct {
	configPath *string
	diagonals  bool
	all        bool
}

func (c *graphCmd) Name() string     { return "graph" }
func (c *graphCmd) Synopsis() string { return "build the navigation graph of a layer" }
func (c *graphCmd) Usage() string {
	return "tilemap graph [-diagonals] [-all] <file> <layer>\n"
}
func (c *graphCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.diagonals, "diagonals", false, "Connect diagonal neighbours (default from config)")
	f.BoolVar(&c.all, "all", false, "Treat every resolvable tile as walkable, ignoring tile properties")
}

func (c *graphCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	e, err := openEnv(*c.configPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer e.close()

	m, err := e.loadMap(f.Arg(0))
	if err != nil {
		e.log.Error("load map failed", zap.Error(err))
		return subcommands.ExitFailure
	}

	diagonals := c.diagonals || e.cfg.Navigation.Diagonals
	opts := nav.Options{Diagonals: diagonals}
	if !c.all {
		opts = m.NavOptions(diagonals)
	}
	g, err := m.BuildGraph(f.Arg(1), opts)
	if err != nil {
		e.log.Error("build graph failed", zap.Error(err))
		return subcommands.ExitFailure
	}

	sizes := components(g)
	largest := 0
	for _, s := range sizes {
		largest = max(largest, s)
	}

	fmt.Println()
	printSection(fmt.Sprintf("graph %s/%s", m.Name, f.Arg(1)))
	printStat("diagonals", diagonals)
	printStat("bounds", g.Bounds())
	printStat("nodes", g.Len())
	printStat("edges", g.EdgeCount())
	printStat("components", len(sizes))
	printStat("largest component", largest)
	printStat("outside largest", g.Len()-largest)
	fmt.Println()
	return subcommands.ExitSuccess
}

// components returns the node count of every connected component.
func components(g *nav.Graph) []int {
	seen := mapset.New[coord.Point]()
	var sizes []int
	for n := range g.Nodes() {
		if seen.Has(n.Pos) {
			continue
		}
		comp := g.Reachable(n.Pos)
		comp.Each(func(p coord.Point) { seen.Put(p) })
		sizes = append(sizes, comp.Size())
	}
	return sizes
}
