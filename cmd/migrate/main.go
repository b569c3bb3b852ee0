package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/storefront/backend/internal/infrastructure/config"
)

func main() {
	var (
		dir   = flag.String("dir", "migrations", "migrations directory")
		steps = flag.Int("steps", 0, "number of migrations to apply (0 = all)")
	)
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	m, err := migrate.New("file://"+*dir, cfg.Database.DSN())
	if err != nil {
		fatal("failed to initialize migrator: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			fatal("failed to read version: %v", verr)
		}
		fmt.Printf("version: %d dirty: %t\n", version, dirty)
		return
	case "force":
		if *steps == 0 {
			fatal("force requires -steps with the target version")
		}
		err = m.Force(*steps)
	default:
		fatal("unknown command %q (want up, down, version, or force)", command)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("no migrations to apply")
		return
	}
	if err != nil {
		fatal("migration failed: %v", err)
	}
	fmt.Println("migrations applied")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
