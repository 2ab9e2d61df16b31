package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alecthomas/kong"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/model"
	"golang.org/x/sync/errgroup"
)

// Usage example on the command line:
// > go run ./cmd/client --sizes=100,1000 --workers=4
func main() {
	if err := NewMain().Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// CLI holds the command line flags.
type CLI struct {
	URL     string        `help:"Base URL of the contacts service." default:"http://localhost:8080"`
	Sizes   []int         `help:"Number of requests per method and round." default:"1000,5000,10000"`
	Workers int           `help:"Number of requests sent in parallel." default:"1"`
	Timeout time.Duration `help:"Timeout of a single request." default:"10s"`
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Run sends rounds of POST, PUT, GET, search and DELETE requests to the JSON API and prints the
// average duration of each request type in microseconds.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	exited := false
	parser, err := kong.New(cli,
		kong.Name("client"),
		kong.Description("Measure the response times of the contacts API."),
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
	if cli.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	c := &client{
		baseURL: strings.TrimSuffix(cli.URL, "/"),
		http:    &http.Client{Timeout: cli.Timeout},
		workers: cli.Workers,
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "  Elements      POST       PUT       GET    SEARCH    DELETE ")
	fmt.Fprintln(stdout, "-------------------------------------------------------------")
	for _, loops := range cli.Sizes {
		if err := c.round(ctx, stdout, loops); err != nil {
			return err
		}
	}
	return nil
}

// client sends requests to the contacts API.
type client struct {
	baseURL string
	http    *http.Client
	workers int
}

const sampleContact = `{
	"first": "Marcus",
	"last": "Antonius",
	"twitter": "@marcus",
	"notes": "Friends, Romans, countrymen"
}`

// round measures every request type with the given number of requests and prints one line.
func (c *client) round(ctx context.Context, stdout io.Writer, loops int) error {
	if loops < 1 {
		return fmt.Errorf("invalid size %d", loops)
	}
	fmt.Fprintf(stdout, "%10d", loops)

	// POST requests
	ids := make([]int64, loops)
	d, err := c.measure(ctx, loops, func(ctx context.Context, i int) error {
		var contact model.Contact
		if err := c.send(ctx, http.MethodPost, "/api/contacts", sampleContact, http.StatusCreated, &contact); err != nil {
			return err
		}
		ids[i] = contact.Id
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%10d", d)

	// PUT requests
	shuffle(ids)
	d, err = c.measure(ctx, loops, func(ctx context.Context, i int) error {
		return c.send(ctx, http.MethodPut, contactPath(ids[i]), `{"favorite": true}`, http.StatusOK, nil)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%10d", d)

	// GET requests
	shuffle(ids)
	d, err = c.measure(ctx, loops, func(ctx context.Context, i int) error {
		return c.send(ctx, http.MethodGet, contactPath(ids[i]), "", http.StatusOK, nil)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%10d", d)

	// search requests, one page of results each
	d, err = c.measure(ctx, loops, func(ctx context.Context, i int) error {
		var list model.ContactList
		return c.send(ctx, http.MethodGet, "/api/contacts?q=anton&limit=20", "", http.StatusOK, &list)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%10d", d)

	// DELETE requests
	shuffle(ids)
	d, err = c.measure(ctx, loops, func(ctx context.Context, i int) error {
		return c.send(ctx, http.MethodDelete, contactPath(ids[i]), "", http.StatusOK, nil)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%10d", d)
	fmt.Fprintln(stdout)
	return nil
}

// measure calls f for 0 <= i < loops and returns the average duration of a call in
// microseconds.
func (c *client) measure(ctx context.Context, loops int, f func(ctx context.Context, i int) error) (int64, error) {
	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := 0; i < loops; i++ {
		i := i
		g.Go(func() error {
			before := time.Now()
			err := f(gctx, i)
			total.Add(int64(time.Since(before)))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total.Load() / int64(loops) / int64(time.Microsecond), nil
}

// send executes a request and decodes the answer into result unless it is nil.
func (c *client) send(ctx context.Context, method string, path string, body string, want int, result any) error {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making http request: %w", err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if res.StatusCode != want {
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, res.StatusCode, resBody)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resBody, result); err != nil {
		return fmt.Errorf("could not unmarshal JSON: %w", err)
	}
	return nil
}

func contactPath(id int64) string {
	return fmt.Sprintf("/api/contacts/%d", id)
}

func shuffle(ids []int64) {
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
