package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sumimedical/suministros-backend/app/repository"
	"github.com/sumimedical/suministros-backend/internal/pkg/cache"
	"github.com/sumimedical/suministros-backend/internal/pkg/config"
	"github.com/sumimedical/suministros-backend/internal/pkg/database"
	"github.com/sumimedical/suministros-backend/internal/pkg/env"
	"github.com/sumimedical/suministros-backend/internal/pkg/reconciler"
)

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	command := os.Args[1]

	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	repos := repository.GetGlobalFactory()
	rec := reconciler.New(
		config.LoadMedia(),
		repos.GetProductRepository(),
		repos.GetImageRepository(),
		reconciler.NewRedisLocker(),
	)

	ctx := context.Background()
	var report *reconciler.Report
	var err error

	switch command {
	case "reconcile-associate":
		report, err = rec.Associate(ctx)
	case "reconcile-rebuild":
		report, err = rec.Rebuild(ctx)
	case "verify":
		report, err = rec.Verify(ctx)
	default:
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, reconciler.ErrLockContended) {
			fmt.Fprintln(os.Stderr, "another reconciliation is already running")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}

	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", e)
	}
	fmt.Println(report.Summary())

	if report.HasErrors() {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: mediactl <command>")
	fmt.Println("Commands:")
	fmt.Println("  reconcile-associate - index on-disk variant groups that have no record yet")
	fmt.Println("  reconcile-rebuild   - purge and rebuild the image index from the media tree")
	fmt.Println("  verify              - read-only consistency check of index against media tree")
}
