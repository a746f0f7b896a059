// Command ingest runs one full ingestion: it purges the loaded tables,
// loads the operator registry file, then bulk-loads every quarterly
// expense file found in the data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	expensestore "healthspend/internal/expense/store"
	"healthspend/internal/ingest"
	operatorstore "healthspend/internal/operator/store"
	"healthspend/internal/platform/config"
	"healthspend/internal/platform/logger"
	"healthspend/internal/platform/metrics"
	"healthspend/internal/platform/postgres"
	platformredis "healthspend/internal/platform/redis"
	"healthspend/internal/source"
	"healthspend/internal/stats"
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

	var (
		operatorFile = flag.String("operators", "", "operator registry CSV (default <data-dir>/operadoras.csv)")
		expenseGlob  = flag.String("expenses", "", "glob of expense CSVs (default <data-dir>/*T*.csv)")
		latin1       = flag.Bool("latin1", true, "decode source files as Latin-1")
	)
	flag.Parse()

	log := logger.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *operatorFile == "" {
		*operatorFile = filepath.Join(cfg.DataDir, "operadoras.csv")
	}
	if *expenseGlob == "" {
		*expenseGlob = filepath.Join(cfg.DataDir, "*T*.csv")
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	runnerOpts := []ingest.Option{
		ingest.WithLogger(log),
		ingest.WithMetrics(metrics.New(registry)),
		ingest.WithBatchSize(cfg.BatchSize),
		ingest.WithCommitEvery(cfg.CommitEvery),
		ingest.WithParallelism(cfg.Parallelism),
	}

	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		runnerOpts = append(runnerOpts,
			ingest.WithStatsCache(stats.NewRedisCache(rdb.Client, cfg.CacheTTL)))
	}

	var readerOpts []source.Option
	if *latin1 {
		readerOpts = append(readerOpts, source.WithLatin1())
	}
	reader := source.NewReader(readerOpts...)

	src, closeAll, err := openSources(reader, *operatorFile, *expenseGlob)
	if err != nil {
		return err
	}
	defer closeAll()

	runner, err := ingest.NewRunner(
		operatorstore.NewPostgres(db),
		expensestore.NewPostgres(db),
		runnerOpts...,
	)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, src)
	if report != nil {
		fmt.Printf("run %s: operators inserted=%d skipped=%d, expenses inserted=%d skipped=%d (%s)\n",
			report.RunID,
			report.Operators.Inserted, report.Operators.Skipped,
			report.Expenses.Inserted, report.Expenses.Skipped,
			report.Duration,
		)
	}
	return err
}

func openSources(reader *source.Reader, operatorFile, expenseGlob string) (ingest.Sources, func(), error) {
	var (
		src     ingest.Sources
		closers []func()
	)
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}

	f, err := os.Open(operatorFile)
	if err != nil {
		return src, closeAll, fmt.Errorf("open operator file: %w", err)
	}
	closers = append(closers, func() { _ = f.Close() })
	src.Operators, err = reader.Open(f)
	if err != nil {
		return src, closeAll, fmt.Errorf("read %s: %w", operatorFile, err)
	}

	paths, err := filepath.Glob(expenseGlob)
	if err != nil {
		return src, closeAll, fmt.Errorf("expense glob: %w", err)
	}
	for _, path := range paths {
		if filepath.Clean(path) == filepath.Clean(operatorFile) {
			continue
		}
		ef, err := os.Open(path)
		if err != nil {
			return src, closeAll, fmt.Errorf("open expense file: %w", err)
		}
		closers = append(closers, func() { _ = ef.Close() })
		rows, err := reader.Open(ef)
		if err != nil {
			return src, closeAll, fmt.Errorf("read %s: %w", path, err)
		}
		src.Expenses = append(src.Expenses, ingest.NamedSource{
			Name: filepath.Base(path),
			Rows: rows,
		})
	}
	return src, closeAll, nil
}
