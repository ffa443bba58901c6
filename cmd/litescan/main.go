// Command litescan answers .dbinfo, .tables, and a restricted SELECT
// subset against a single-file embedded database, by walking its on-disk
// B-tree pages directly (SPEC_FULL.md §4.12).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/aeriscode/litescan/internal/config"
	"github.com/aeriscode/litescan/internal/output"
	"github.com/aeriscode/litescan/internal/query"
	"github.com/aeriscode/litescan/internal/schema"
	"github.com/aeriscode/litescan/internal/sqlparse"
	"github.com/aeriscode/litescan/internal/storage"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: litescan <path> <command>")
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(dbPath, command string, stdout *os.File) error {
	cfg := config.Default()
	if overlayPath := os.Getenv("LITESCAN_CONFIG"); overlayPath != "" {
		if err := config.LoadOverlay(cfg, overlayPath); err != nil {
			return err
		}
	} else if _, err := os.Stat("litescan.yaml"); err == nil {
		if err := config.LoadOverlay(cfg, "litescan.yaml"); err != nil {
			return err
		}
	}

	queryID := uuid.New()
	log := slog.Default().With("query_id", queryID.String(), "db", filepath.Base(dbPath))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReadTimeout)
	defer cancel()

	resources := config.NewResourceManager()
	defer resources.Close()

	pager, err := storage.Open(dbPath)
	if err != nil {
		log.Error("failed to open database", "err", err)
		return err
	}
	resources.Add(pager)

	resolver, err := schema.NewResolver(pager)
	if err != nil {
		log.Error("failed to resolve schema", "err", err)
		return err
	}

	formatter := formatterFor(cfg.Format)

	switch command {
	case ".dbinfo":
		return runDBInfo(stdout, pager, resolver)
	case ".tables":
		return formatter.FormatTableNames(stdout, resolver.TableNames())
	default:
		return runSelect(ctx, stdout, pager, resolver, cfg, log, formatter, command)
	}
}

func runDBInfo(stdout *os.File, pager *storage.Pager, resolver *schema.Resolver) error {
	fmt.Fprintf(stdout, "database page size: %d\n", pager.Header.PageSize)
	fmt.Fprintf(stdout, "number of tables: %d\n", resolver.TableCount())
	fmt.Fprintf(stdout, "text encoding: %d\n", pager.Header.TextEncoding)
	fmt.Fprintf(stdout, "schema cookie: %d\n", pager.Header.SchemaCookie)
	fmt.Fprintf(stdout, "page size (human): %s\n", humanize.Bytes(uint64(pager.Header.PageSize)))
	return nil
}

func runSelect(ctx context.Context, stdout *os.File, pager *storage.Pager, resolver *schema.Resolver, cfg *config.Config, log *slog.Logger, formatter output.Formatter, sql string) error {
	desc, err := sqlparse.ParseSelect(sql)
	if err != nil {
		log.Error("failed to parse query", "err", err)
		return err
	}

	exec := query.New(pager, resolver, cfg, log)
	result, err := exec.Run(ctx, desc)
	if err != nil {
		log.Error("failed to execute query", "err", err)
		return err
	}

	return formatter.FormatResult(stdout, result)
}

func formatterFor(f config.OutputFormat) output.Formatter {
	if f == config.FormatJSON {
		return output.JSON{}
	}
	return output.Console{}
}
