package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/eak1mov/go-libatlas/bundle"
	"github.com/eak1mov/go-libatlas/bundle/spec"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type bundleCmd struct {
	rootPath     string
	rootKind     string
	outputPath   string
	compression  string
	metadataPath string
}

func (c *bundleCmd) Name() string     { return "bundle" }
func (c *bundleCmd) Synopsis() string { return "pack all assets of a storage into a bundle file" }
func (c *bundleCmd) Usage() string {
	return "atlasutils bundle -root <path> -o <path> [-c <compression> -m <path>]\n"
}
func (c *bundleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rootPath, "root", ".", "Asset storage (directory, .db or .atlasbundle file)")
	f.StringVar(&c.rootKind, "rk", "", "Asset storage kind (dir, sqlite, bundle)")
	f.StringVar(&c.outputPath, "o", "", "Output bundle file path")
	f.StringVar(&c.compression, "c", "gzip", "Directory compression (none, gzip, zstd)")
	f.StringVar(&c.metadataPath, "m", "", "Metadata file to embed")
}

func (c *bundleCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.outputPath == "" {
		log.Print(c.Usage())
		return subcommands.ExitUsageError
	}

	compression, err := spec.ParseCompression(c.compression)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	var metadata []byte
	if c.metadataPath != "" {
		if metadata, err = os.ReadFile(c.metadataPath); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}

	reader, err := openInput(c.rootKind, c.rootPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeStorage(reader)

	writer, err := bundle.NewWriter(c.outputPath,
		bundle.WithMetadata(metadata),
		bundle.WithCompression(compression),
		bundle.WithLogger(slog.Default()))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer writer.Close()

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err = reader.VisitAssets(func(assetPath string, data []byte) error {
		err := writer.WriteAsset(assetPath, data)
		bar.Add(1)
		return err
	})
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
