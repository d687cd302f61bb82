package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"

	"github.com/eak1mov/go-libatlas/imagefmt"
	"github.com/eak1mov/go-libatlas/index"
	"github.com/google/subcommands"
)

type exportCmd struct {
	rootPath          string
	rootKind          string
	inputPath         string
	outputIndexPath   string
	outputTexturePath string
}

func (c *exportCmd) Name() string     { return "export_index" }
func (c *exportCmd) Synopsis() string { return "export atlas layout index and texture" }
func (c *exportCmd) Usage() string {
	return "atlasutils export_index -root <path> -i <path> -o <path> [-t <path>]\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rootPath, "root", ".", "Asset storage (directory, .db or .atlasbundle file)")
	f.StringVar(&c.rootKind, "rk", "", "Asset storage kind (dir, sqlite, bundle)")
	f.StringVar(&c.inputPath, "i", "", "Atlas or descriptor asset path")
	f.StringVar(&c.outputIndexPath, "o", "", "Output index file path")
	f.StringVar(&c.outputTexturePath, "t", "", "Output texture file path")
}

func writeFile(filePath string, write func(w *bufio.Writer) error) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputPath == "" || c.outputIndexPath == "" {
		log.Print(c.Usage())
		return subcommands.ExitUsageError
	}

	a, err := loadAtlas(ctx, c.rootKind, c.rootPath, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	err = writeFile(c.outputIndexPath, func(w *bufio.Writer) error {
		return index.WriteAll(index.FromLayout(a.Layout), w)
	})
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if c.outputTexturePath != "" {
		format, err := imagefmt.FromExtension(c.outputTexturePath)
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		err = writeFile(c.outputTexturePath, func(w *bufio.Writer) error {
			return imagefmt.Encode(w, a.Texture, format)
		})
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}

	return subcommands.ExitSuccess
}
