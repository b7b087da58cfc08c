package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/spanel_go_server/config"
	"github.com/qs3c/spanel_go_server/internal/database"
	"github.com/qs3c/spanel_go_server/internal/pkg/logging"
	"github.com/qs3c/spanel_go_server/internal/repository"
)

var (
	configPath    = flag.String("config", "config/config.yaml", "Path to config file")
	dryRun        = flag.Bool("dry-run", true, "Dry run mode, only count rows")
	codeExpire    = flag.Int("code-expire", 180, "Days to keep used redemption codes")
	trafficExpire = flag.Int("traffic-expire", 90, "Days to keep daily traffic snapshots")
	cleanCodes    = flag.Bool("clean-codes", true, "Clean old used redemption codes")
	cleanLinks    = flag.Bool("clean-links", true, "Clean subscription links of deleted accounts")
	cleanTraffic  = flag.Bool("clean-traffic", true, "Clean old traffic snapshots")
)

// step 一类清理：count 用于 dry-run，del 真正删除
type step struct {
	name  string
	count func() (int64, error)
	del   func() (int64, error)
}

func main() {
	flag.Parse()
	ctx := context.Background()

	if env := os.Getenv("CONFIG_PATH"); env != "" {
		*configPath = env
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error(ctx, "failed to connect database", "error", err)
		os.Exit(1)
	}

	logger.Info(ctx, "starting cleanup task", "dry_run", *dryRun)

	steps := buildSteps(db, time.Now())
	var total int64
	for _, s := range steps {
		n, err := runStep(s, *dryRun)
		if err != nil {
			logger.Error(ctx, "cleanup step failed", "step", s.name, "error", err)
			continue
		}
		logger.Info(ctx, "cleanup step done", "step", s.name, "rows", n, "dry_run", *dryRun)
		total += n
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Cleanup Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Steps: %d\n", len(steps))
	fmt.Printf("Rows affected: %d\n", total)
	if *dryRun {
		fmt.Println("DRY RUN MODE - nothing was deleted")
		fmt.Println("Run with -dry-run=false to actually delete rows")
	}
	fmt.Println(strings.Repeat("=", 60))
}

func buildSteps(db *gorm.DB, now time.Time) []step {
	var steps []step

	if *cleanCodes {
		codes := repository.NewCodeRepository(db)
		before := now.AddDate(0, 0, -*codeExpire)
		steps = append(steps, step{
			name:  "used_codes",
			count: func() (int64, error) { return codes.CountUsedBefore(before) },
			del:   func() (int64, error) { return codes.DeleteUsedBefore(before) },
		})
	}

	if *cleanLinks {
		links := repository.NewLinkRepository(db)
		steps = append(steps, step{
			name:  "orphan_links",
			count: links.CountOrphans,
			del:   links.DeleteOrphans,
		})
	}

	if *cleanTraffic {
		traffic := repository.NewTrafficRepository(db)
		before := now.AddDate(0, 0, -*trafficExpire).Format(time.DateOnly)
		steps = append(steps, step{
			name:  "traffic_logs",
			count: func() (int64, error) { return traffic.CountBefore(before) },
			del:   func() (int64, error) { return traffic.DeleteBefore(before) },
		})
	}

	return steps
}

func runStep(s step, dryRun bool) (int64, error) {
	if dryRun {
		return s.count()
	}
	return s.del()
}
