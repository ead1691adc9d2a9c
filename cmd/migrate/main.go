// Command migrate manages the PostgreSQL schema.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/Z3RO333/formularios/internal/infrastructure/config"
	"github.com/Z3RO333/formularios/internal/infrastructure/logger"
	"github.com/Z3RO333/formularios/internal/infrastructure/migration"
	"github.com/Z3RO333/formularios/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var dir, logLevel string
	flag.StringVar(&dir, "path", "", "read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, _ := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	defer func() { _ = log.Sync() }()

	if err := run(args, dir, log); err != nil {
		log.Fatal("migrate failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(args []string, dir string, log *zap.Logger) error {
	var source fs.FS = migrations.FS
	if dir != "" {
		source = os.DirFS(dir)
	}

	switch args[0] {
	case "create":
		if dir == "" {
			dir = "migrations"
		}
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate create <name>")
		}
		mf, err := migration.Create(dir, args[1])
		if err != nil {
			return err
		}
		log.Info("migration created", zap.Uint("version", mf.Version), zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return nil

	case "list":
		entries, err := migration.List(source)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%06d  %s\n", e.Version, e.Name)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "" && cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations target postgres, configured driver is %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.NewWithSource(db, source, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", zap.Error(err))
		}
	}()

	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args, "step")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		v, err := intArg(args, "force")
		if err != nil {
			return err
		}
		return m.Force(v)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d dirty=%t\n", version, dirty)
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: migrate %s <n>", cmd)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[1])
	}
	return n, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [flags] <command> [argument]

Commands:
  up              apply all pending migrations
  down            roll back every migration
  step <n>        apply n migrations, negative rolls back
  version         print the current version
  force <v>       record version v without running it (clears a dirty state)
  create <name>   write an empty numbered up/down pair
  list            list the available migrations

Flags:
  -path string       migrations directory (default: embedded set)
  -log-level string  debug, info, warn, error

Database settings come from config.toml or FORMS_DATABASE_* variables.`)
}
