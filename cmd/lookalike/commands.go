package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/lookalike/internal/catalog"
	"github.com/hyperjump/lookalike/internal/cli"
	"github.com/hyperjump/lookalike/internal/upload"
)

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL; empty runs locally")
	topK := fs.Int("top-k", 0, "number of results (0 uses the default)")
	output := fs.String("output", "text", "output format: text, compact, json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: lookalike search [flags] <image>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	imagePath := fs.Arg(0)
	format := parseFormat(*output)
	ctx := context.Background()

	if *serverURL != "" {
		resp, err := newAPIClient(*serverURL).Similar(ctx, imagePath, *topK)
		exitOnError("Search failed", err)
		exitOnError("Output failed", cli.WriteQueryResults(os.Stdout, resp, format))
		return
	}

	components, err := newLocalComponents(ctx, *configPath)
	exitOnError("Failed to initialize", err)
	defer components.Close()

	f, err := os.Open(imagePath)
	exitOnError("Failed to open image", err)
	data, err := upload.ReadLimited(f, components.Service.Config().MaxUploadBytes)
	f.Close()
	exitOnError("Failed to read image", err)

	resp, err := components.Service.HandleQuery(ctx, data, *topK)
	exitOnError("Search failed", err)
	exitOnError("Output failed", cli.WriteQueryResults(os.Stdout, resp, format))
}

func runLookup() {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL; empty runs locally")
	limit := fs.Int("limit", 0, "number of results (0 uses the default)")
	output := fs.String("output", "text", "output format: text, compact, json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: lookalike lookup [flags] <text>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	q := buildLookupQuery(fs.Args())
	if q == "" {
		fs.Usage()
		os.Exit(1)
	}
	format := parseFormat(*output)
	ctx := context.Background()

	if *serverURL != "" {
		resp, err := newAPIClient(*serverURL).Lookup(ctx, q, *limit)
		exitOnError("Lookup failed", err)
		exitOnError("Output failed", cli.WriteLookupResults(os.Stdout, resp, format))
		return
	}

	components, err := newLocalComponents(ctx, *configPath)
	exitOnError("Failed to initialize", err)
	defer components.Close()

	resp, err := components.Service.Lookup(ctx, q, *limit)
	exitOnError("Lookup failed", err)
	exitOnError("Output failed", cli.WriteLookupResults(os.Stdout, resp, format))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (local mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL; empty runs locally")
	output := fs.String("output", "text", "output format: text, json")
	_ = fs.Parse(os.Args[2:])

	format := parseFormat(*output)
	ctx := context.Background()

	if *serverURL != "" {
		st, err := newAPIClient(*serverURL).Status(ctx)
		exitOnError("Status failed", err)
		exitOnError("Output failed", cli.WriteStatus(os.Stdout, st, format))
		return
	}

	components, err := newLocalComponents(ctx, *configPath)
	exitOnError("Failed to initialize", err)
	defer components.Close()
	exitOnError("Output failed", cli.WriteStatus(os.Stdout, components.Service.Status(), format))
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "source catalog (.json, .xlsx, .db)")
	out := fs.String("out", "", "destination catalog (.json, .xlsx, .db)")
	_ = fs.Parse(os.Args[2:])

	if strings.TrimSpace(*in) == "" || strings.TrimSpace(*out) == "" {
		fmt.Fprintln(os.Stderr, "Usage: lookalike import -in <catalog> -out <catalog>")
		os.Exit(1)
	}
	cat, err := importCatalog(context.Background(), *in, *out)
	exitOnError("Import failed", err)
	fmt.Printf("Imported %d products (%d dimensions) into %s\n", cat.Len(), cat.Dimensions(), *out)
}

// importCatalog converts the catalog at in to the format implied by out.
func importCatalog(ctx context.Context, in, out string) (*catalog.Catalog, error) {
	cat, err := catalog.Load(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := catalog.Save(ctx, out, cat); err != nil {
		return nil, err
	}
	return cat, nil
}
