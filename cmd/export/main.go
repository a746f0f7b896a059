// Command export writes CSV extracts of the loaded data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"healthspend/internal/export"
	"healthspend/internal/platform/config"
	"healthspend/internal/platform/logger"
	"healthspend/internal/platform/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	outDir := flag.String("out", ".", "directory for the exported files")
	flag.Parse()

	log := logger.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	exporter, err := export.New(db, log)
	if err != nil {
		return err
	}

	files := []struct {
		name  string
		write func(context.Context, *os.File) (int, error)
	}{
		{"despesas_consolidadas.csv", func(ctx context.Context, f *os.File) (int, error) {
			return exporter.Consolidated(ctx, f)
		}},
		{"despesas_agregadas.csv", func(ctx context.Context, f *os.File) (int, error) {
			return exporter.Aggregates(ctx, f)
		}},
	}

	for _, out := range files {
		path := filepath.Join(*outDir, out.name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		rows, err := out.write(ctx, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("export %s: %w", path, err)
		}
		fmt.Printf("%s: %d rows\n", path, rows)
	}
	return nil
}
