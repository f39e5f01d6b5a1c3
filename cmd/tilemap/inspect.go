package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"maps"
	"slices"

	"github.com/google/subcommands"
	"github.com/l1jgo/tilemap/internal/scripting"
	"github.com/l1jgo/tilemap/internal/tilemap"
	"go.uber.org/zap"
)

type inspectCmd struct {
	configPath *string
	maxErrors  int
	kinds      bool
}

func (c *inspectCmd) Name() string     { return "inspect" }
func (c *inspectCmd) Synopsis() string { return "build a map document and print layer statistics" }
func (c *inspectCmd) Usage() string {
	return "tilemap inspect [-errors <n>] [-kinds] <file>\n"
}
func (c *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.maxErrors, "errors", 10, "Maximum resolve errors to list per layer")
	f.BoolVar(&c.kinds, "kinds", false, "Count tile kinds per layer (make_tile when scripting is enabled)")
}

func (c *inspectCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
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

	fmt.Println()
	printSection("map " + m.Name)
	printStat("orientation", m.Orientation)
	if m.Orientation == tilemap.Staggered || m.Orientation == tilemap.Hexagonal {
		printStat("stagger", fmt.Sprintf("%s/%s", m.StaggerAxis, m.StaggerIndex))
	}
	if m.Infinite {
		printStat("size", "infinite")
	} else {
		printStat("size", fmt.Sprintf("%dx%d", m.Width, m.Height))
	}
	printStat("tile size", fmt.Sprintf("%dx%d", m.TileWidth, m.TileHeight))
	fmt.Println()

	printSection("tilesets")
	for _, d := range m.Registry().Descriptors() {
		printStat(d.Name, fmt.Sprintf("gid %d-%d", d.FirstGID, d.LastGID()))
	}
	printStat("tile records", m.Store().Len())
	fmt.Println()

	for _, l := range m.Layers() {
		printSection(fmt.Sprintf("layer %s (%s)", l.Name(), l.Mode()))
		printStat("bounds", l.Bounds())
		printStat("tiles", l.Len())
		if l.Infinite() {
			printStat("chunks", len(l.Chunks()))
		}
		errs := l.ResolveErrors()
		printStat("resolve errors", len(errs))
		for i, rerr := range errs {
			if i == c.maxErrors {
				printWarn(fmt.Sprintf("... %d more", len(errs)-i))
				break
			}
			printWarn(rerr.Error())
		}
		if c.kinds {
			counts, err := c.countKinds(e, m, l.Name())
			if err != nil {
				e.log.Error("count tile kinds failed", zap.Error(err))
				return subcommands.ExitFailure
			}
			for _, k := range slices.Sorted(maps.Keys(counts)) {
				printStat("  "+k, counts[k])
			}
		}
		fmt.Println()
	}

	rep := m.Report()
	if rep.OK() {
		printOK(rep.String())
	} else {
		printWarn(rep.String())
	}
	return subcommands.ExitSuccess
}

func (c *inspectCmd) countKinds(e *env, m *tilemap.Map, layerName string) (map[string]int, error) {
	counts := make(map[string]int)
	if e.engine != nil {
		tiles, err := tilemap.Materialize[scripting.ScriptedTile](m, layerName, e.engine)
		if err != nil {
			return nil, err
		}
		for _, t := range tiles {
			counts[t.Kind]++
		}
		return counts, nil
	}

	tiles, err := tilemap.Materialize[tilemap.BasicTile](m, layerName, tilemap.BasicFactory{})
	if err != nil {
		return nil, err
	}
	for _, t := range tiles {
		kind := t.Type
		if kind == "" {
			kind = t.Ref.String()
		}
		counts[kind]++
	}
	return counts, nil
}
