package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
)

// Usage example on the command line:
// > go run ./cmd/wait-until-available --url=http://localhost:8080 --timeout=2m
func main() {
	if err := NewMain().Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// CLI holds the command line flags.
type CLI struct {
	URL      string        `help:"Base URL of the contacts service." default:"http://localhost:8080"`
	Interval time.Duration `help:"Time between two attempts." default:"5s"`
	Timeout  time.Duration `help:"Give up after this time, 0 waits forever." default:"0s"`
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Run polls the health endpoint of the service until it answers with OK.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	exited := false
	parser, err := kong.New(cli,
		kong.Name("wait-until-available"),
		kong.Description("Wait until the contacts service is up and its database is reachable."),
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
	if cli.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}

	healthURL := strings.TrimSuffix(cli.URL, "/") + "/healthz"
	client := &http.Client{Timeout: cli.Interval}
	start := time.Now()
	for {
		err := check(ctx, client, healthURL)
		if err == nil {
			fmt.Fprintf(stdout, "%s is available after %s\n", cli.URL, time.Since(start).Round(time.Second))
			return nil
		}
		fmt.Fprintln(stdout, err)
		fmt.Fprintf(stdout, "Waiting %s\n", time.Since(start).Round(time.Second))

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not available: %w", cli.URL, ctx.Err())
		case <-time.After(cli.Interval):
		}
	}
}

// check returns nil if the health endpoint answers with OK.
func check(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s answered %s", url, res.Status)
	}
	return nil
}
