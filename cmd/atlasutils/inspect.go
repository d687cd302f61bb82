package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/atlas"
	"github.com/google/subcommands"
)

type inspectCmd struct {
	rootPath  string
	rootKind  string
	inputPath string
}

func (c *inspectCmd) Name() string     { return "inspect" }
func (c *inspectCmd) Synopsis() string { return "print the layout of an atlas" }
func (c *inspectCmd) Usage() string {
	return "atlasutils inspect -root <path> -i <path>\n"
}
func (c *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rootPath, "root", ".", "Asset storage (directory, .db or .atlasbundle file)")
	f.StringVar(&c.rootKind, "rk", "", "Asset storage kind (dir, sqlite, bundle)")
	f.StringVar(&c.inputPath, "i", "", "Atlas or descriptor asset path")
}

func loadAtlas(ctx context.Context, kind, rootPath, assetPath string) (*atlas.Asset, error) {
	reader, err := openInput(kind, rootPath)
	if err != nil {
		return nil, err
	}
	defer closeStorage(reader)

	h, err := newServer(reader).Load(ctx, assetPath)
	if err != nil {
		return nil, err
	}
	a, ok := asset.Get[*atlas.Asset](h)
	if !ok {
		return nil, fmt.Errorf("%s is not an atlas (%T)", assetPath, h.Value())
	}
	return a, nil
}

func (c *inspectCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	a, err := loadAtlas(ctx, c.rootKind, c.rootPath, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	fmt.Printf("size: %v\n", a.Layout.Size)
	for i, r := range a.Layout.Rects {
		p, ok := a.Paths.Get(i)
		if !ok {
			p = "-"
		}
		fmt.Printf("%d: %v %s\n", i, r, p)
	}

	return subcommands.ExitSuccess
}
