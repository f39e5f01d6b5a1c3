package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/subcommands"
	"github.com/l1jgo/tilemap/internal/persist"
	"github.com/l1jgo/tilemap/internal/source"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type importCmd struct {
	configPath *string
	force      bool
	verify     bool
}

func (c *importCmd) Name() string     { return "import" }
func (c *importCmd) Synopsis() string { return "store map documents in PostgreSQL" }
func (c *importCmd) Usage() string {
	return "tilemap import [-force] [-verify=false] <file>...\n"
}
func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Save even when the stored fingerprint matches")
	f.BoolVar(&c.verify, "verify", true, "Build each map before saving and reject structural errors")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	e, err := openEnv(*c.configPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer e.close()

	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := persist.NewDB(dbCtx, e.cfg.Database, e.log)
	if err != nil {
		e.log.Error("database connect failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer db.Close()
	version, err := db.Migrate(dbCtx)
	if err != nil {
		e.log.Error("migrations failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	e.log.Debug("schema ready", zap.Int64("version", version))
	repo := persist.NewMapRepo(db)

	var saved, skipped int
	bar := progressbar.New(f.NArg())
	for _, path := range f.Args() {
		doc, err := source.Load(path)
		if err != nil {
			e.log.Error("load document failed", zap.String("path", path), zap.Error(err))
			return subcommands.ExitFailure
		}
		if c.verify {
			if _, err := e.buildMap(doc); err != nil {
				e.log.Error("map rejected", zap.String("path", path), zap.Error(err))
				return subcommands.ExitFailure
			}
		}

		if !c.force {
			fp, err := doc.Fingerprint()
			if err != nil {
				e.log.Error("fingerprint failed", zap.String("map", doc.Name), zap.Error(err))
				return subcommands.ExitFailure
			}
			stored, err := repo.Fingerprint(ctx, doc.Name)
			if err != nil {
				e.log.Error("stored fingerprint lookup failed", zap.String("map", doc.Name), zap.Error(err))
				return subcommands.ExitFailure
			}
			if stored == fp {
				skipped++
				bar.Add(1)
				continue
			}
		}

		if err := repo.Save(ctx, doc); err != nil {
			e.log.Error("save map failed", zap.String("map", doc.Name), zap.Error(err))
			return subcommands.ExitFailure
		}
		saved++
		bar.Add(1)
	}
	bar.Finish()
	fmt.Println()

	printOK(fmt.Sprintf("%d saved, %d unchanged", saved, skipped))
	return subcommands.ExitSuccess
}
