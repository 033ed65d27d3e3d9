package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/plotfit/internal/pkg/config"
)

// migrations are applied in order by "up" and reverted in reverse order by
// "down". Steps without a .down.sql file are left in place on the way down.
var migrations = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_overlay_tables.sql",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("plotfit-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		apply(ctx, pool, upFiles())
		log.Println("all migrations applied")
	case "down":
		apply(ctx, pool, downFiles(fileExists))
		log.Println("all migrations reverted")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func upFiles() []string {
	return append([]string(nil), migrations...)
}

// downFiles lists the revert scripts that exist, newest first.
func downFiles(exists func(string) bool) []string {
	var out []string
	for i := len(migrations) - 1; i >= 0; i-- {
		f := strings.TrimSuffix(migrations[i], ".sql") + ".down.sql"
		if exists(f) {
			out = append(out, f)
		}
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, files []string) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}
}
