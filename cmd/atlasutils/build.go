package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/eak1mov/go-libatlas/asset"
	"github.com/eak1mov/go-libatlas/imagefmt"
	"github.com/eak1mov/go-libatlas/pipeline"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type buildCmd struct {
	rootPath    string
	rootKind    string
	inputPath   string
	outputRoot  string
	outputKind  string
	outputPath  string
	imageFormat string
}

func (c *buildCmd) Name() string     { return "build" }
func (c *buildCmd) Synopsis() string { return "build an atlas from a descriptor and save it" }
func (c *buildCmd) Usage() string {
	return "atlasutils build -root <path> -i <descriptor> -o <path> [-format <format> -out_root <path>]\n"
}
func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.rootPath, "root", ".", "Asset storage (directory, .db or .atlasbundle file)")
	f.StringVar(&c.rootKind, "rk", "", "Asset storage kind (dir, sqlite, bundle)")
	f.StringVar(&c.inputPath, "i", "", "Descriptor asset path")
	f.StringVar(&c.outputRoot, "out_root", "", "Output storage (default: -root)")
	f.StringVar(&c.outputKind, "ok", "", "Output storage kind (dir, sqlite, bundle)")
	f.StringVar(&c.outputPath, "o", "", "Output asset path")
	f.StringVar(&c.imageFormat, "format", "", "Texture format (png, jpeg, gif, bmp, tiff; default: from -o)")
}

func (c *buildCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputPath == "" || c.outputPath == "" {
		log.Print(c.Usage())
		return subcommands.ExitUsageError
	}

	format, err := imagefmt.ParseFormat(c.imageFormat)
	if err == nil && format == imagefmt.Auto {
		format, err = imagefmt.FromExtension(c.outputPath)
	}
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	reader, err := openInput(c.rootKind, c.rootPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeStorage(reader)

	outputRoot, outputKind := c.outputRoot, c.outputKind
	if outputRoot == "" {
		outputRoot, outputKind = c.rootPath, c.rootKind
	}
	if err := checkOutput(c.rootPath, outputKind, outputRoot); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	writer, err := openOutput(outputKind, outputRoot)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeStorage(writer)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("loading"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount())
	s := newServer(reader,
		asset.WithWriter(writer),
		asset.WithProgress(func(string, error) { bar.Add(1) }))

	err = s.Process(ctx, c.inputPath, c.outputPath, pipeline.Saver{}, &pipeline.SaverSettings{Format: format})
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
