package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"shophub/internal/config"
	"shophub/internal/db"
	"shophub/internal/importer"
	"shophub/internal/repository/product"

	"github.com/joho/godotenv"
)

func main() {
	var (
		filePath string
		verbose  bool
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV file")
	flag.BoolVar(&verbose, "v", false, "Log every product written")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	var repoLogger *log.Logger
	if verbose {
		repoLogger = logger
	}
	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, repoLogger), repoLogger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
