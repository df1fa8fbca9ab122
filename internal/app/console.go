package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/samvad-hq/samvad-articles/internal/domain"
	"github.com/samvad-hq/samvad-articles/internal/logger"
	"github.com/samvad-hq/samvad-articles/pkg/articles"
)

// Console runs articlectl subcommands against an articles API and prints JSON results.
type Console struct {
	client *articles.Client
	out    io.Writer
	log    logger.Logger
}

// NewConsole returns a Console writing results to out.
func NewConsole(client *articles.Client, out io.Writer, log logger.Logger) *Console {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Console{client: client, out: out, log: log}
}

// Usage lists the supported subcommands.
const Usage = `usage: articlectl <command> [flags] [args]

commands:
  create -title T [-body B] [-author A]
  get <id>
  list
  page [-page N] [-limit N]
  search <query>
  update <id> -title T [-body B] [-author A]
  delete <id>
  demo`

// ErrUsage is returned for unknown commands or malformed arguments.
var ErrUsage = errors.New("invalid usage")

// Run executes the subcommand named by args[0].
func (c *Console) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "create":
		a, err := parseArticleFlags(cmd, rest)
		if err != nil {
			return err
		}
		return c.print(c.client.Create(ctx, a))
	case "get":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		return c.print(c.client.ReadOne(ctx, id))
	case "list":
		return c.print(c.client.ReadAll(ctx))
	case "page":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		page := fs.Int("page", 0, "zero-based page index")
		limit := fs.Int("limit", 10, "page size")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return c.print(c.client.ReadPage(ctx, *page, *limit))
	case "search":
		if len(rest) != 1 {
			return fmt.Errorf("%w: search takes one query argument", ErrUsage)
		}
		return c.print(c.client.Search(ctx, rest[0]))
	case "update":
		id, err := parseID(rest[:min(1, len(rest))])
		if err != nil {
			return err
		}
		a, err := parseArticleFlags(cmd, rest[1:])
		if err != nil {
			return err
		}
		return c.print(c.client.Update(ctx, id, a))
	case "delete":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		if err := c.client.Delete(ctx, id); err != nil {
			return err
		}
		return c.print(map[string]any{"deleted": id}, nil)
	case "demo":
		return c.Demo(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// Demo walks through every operation once: create, read one, read all, read a
// page, update, delete, and a final read that must report not found.
func (c *Console) Demo(ctx context.Context) error {
	created, err := c.client.Create(ctx, domain.Article{Title: "A", Body: "hello", Author: "demo"})
	if err != nil {
		return fmt.Errorf("demo create: %w", err)
	}
	c.log.InfoObj("demo created article", "article", created)

	one, err := c.client.ReadOne(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("demo read one: %w", err)
	}
	c.log.InfoObj("demo read article", "article", one)

	all, err := c.client.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("demo read all: %w", err)
	}
	c.log.InfoObj("demo listed articles", "count", len(all))

	page, err := c.client.ReadPage(ctx, 0, 10)
	if err != nil {
		return fmt.Errorf("demo read page: %w", err)
	}
	c.log.InfoObj("demo paged articles", "count", len(page))

	updated, err := c.client.Update(ctx, created.ID, domain.Article{Title: "A (edited)", Body: one.Body, Author: one.Author})
	if err != nil {
		return fmt.Errorf("demo update: %w", err)
	}
	c.log.InfoObj("demo updated article", "article", updated)

	if err := c.client.Delete(ctx, created.ID); err != nil {
		return fmt.Errorf("demo delete: %w", err)
	}

	_, err = c.client.ReadOne(ctx, created.ID)
	if !articles.IsNotFound(err) {
		return fmt.Errorf("demo: expected not found after delete, got %v", err)
	}

	return c.print(map[string]any{
		"created": created,
		"listed":  len(all),
		"paged":   len(page),
		"updated": updated,
		"deleted": created.ID,
	}, nil)
}

func (c *Console) print(v any, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected one article id", ErrUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: article id %q is not an integer", ErrUsage, args[0])
	}
	return id, nil
}

func parseArticleFlags(cmd string, args []string) (domain.Article, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "article title")
	body := fs.String("body", "", "article body")
	author := fs.String("author", "", "article author")
	if err := fs.Parse(args); err != nil {
		return domain.Article{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *title == "" {
		return domain.Article{}, fmt.Errorf("%w: -title is required", ErrUsage)
	}
	return domain.Article{Title: *title, Body: *body, Author: *author}, nil
}
