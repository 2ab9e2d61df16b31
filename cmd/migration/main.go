package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
)

// Usage example on the command line:
// > DBFILE=contacts.db go run ./cmd/migration --seed
// > DBDRIVER=mysql DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run ./cmd/migration --file=scripts/database.sql
func main() {
	if err := NewMain().Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// CLI holds the command line flags. The database itself is configured through the same
// environment variables as the service.
type CLI struct {
	File     string `help:"SQL file to execute instead of the built-in schema." type:"existingfile"`
	Seed     bool   `help:"Add the sample contacts after the migration."`
	SeedFile string `help:"YAML file with the contacts to add, implies --seed." type:"existingfile"`
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Run executes the migration with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	exited := false
	parser, err := kong.New(cli,
		kong.Name("migration"),
		kong.Description("Create the contacts table and optionally fill it with sample contacts."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) { exited = true }),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}
	if _, err := parser.Parse(args); err != nil {
		return err
	}
	if exited {
		return nil
	}

	cfg, err := config.Load(logger.NewNop())
	if err != nil {
		return err
	}
	db, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cli.File == "" {
		if err := store.Migrate(ctx, db); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Created the contacts table.")
	} else {
		f, err := os.Open(cli.File) // nosemgrep
		if err != nil {
			return err
		}
		defer f.Close()
		executed, err := store.ExecScript(ctx, db, f)
		if err != nil {
			return fmt.Errorf("%s: %w", cli.File, err)
		}
		fmt.Fprintf(stdout, "Executed %d statements from %s.\n", executed, cli.File)
	}

	if !cli.Seed && cli.SeedFile == "" {
		return nil
	}
	seed, err := readSeed(cli.SeedFile)
	if err != nil {
		return err
	}
	contacts, err := store.NewSQLStore(db)
	if err != nil {
		return err
	}
	added, err := store.Seed(ctx, contacts, seed)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(stdout, "Added %d of %d sample contacts.\n", added, len(seed))
	return nil
}

func readSeed(path string) ([]model.Contact, error) {
	if path == "" {
		return store.DefaultSeed()
	}
	f, err := os.Open(path) // nosemgrep
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return store.LoadSeed(f)
}
