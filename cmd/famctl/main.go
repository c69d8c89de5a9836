// Command famctl administers a running famledger bot through its admin API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"famledger/internal/adminclient"
	"famledger/internal/logger"
)

const usage = `usage: famctl <command> [args]

commands:
  refresh                              reload authorized users
  users [page] [page_size]             list authorized users
  add-user <chat_id> <name> <family>   provision a family member`

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		logger.Get().Fatalf("famctl: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	baseURL := os.Getenv("ADMIN_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	apiKey := os.Getenv("ADMIN_API_KEY")
	if apiKey == "" {
		return errors.New("ADMIN_API_KEY is required")
	}
	timeout := 30 * time.Second
	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q", raw)
		}
		timeout = d
	}

	client := adminclient.New(baseURL, apiKey, &http.Client{Timeout: timeout})

	switch args[0] {
	case "refresh":
		n, err := client.RefreshAuth(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Authorization refreshed: %d user(s)\n", n)

	case "users":
		page, pageSize, err := parsePaging(args[1:])
		if err != nil {
			return err
		}
		result, err := client.ListUsers(ctx, page, pageSize)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CHAT ID\tNAME\tFAMILY\tCREATED")
		for _, u := range result.Data {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ChatID, u.Name, u.FamilyID, u.CreatedAt.Format("2006-01-02"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "page %d of %d (%d total)\n", result.Page, result.TotalPages, result.TotalItems)

	case "add-user":
		if len(args) != 4 {
			return errors.New("usage: famctl add-user <chat_id> <name> <family>")
		}
		chatID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat id %q", args[1])
		}
		user, err := client.CreateUser(ctx, chatID, args[2], args[3])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added %s (chat %d) to family %s\n", user.Name, user.ChatID, user.FamilyID)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}

	return nil
}

func parsePaging(args []string) (page, pageSize int, err error) {
	if len(args) > 0 {
		if page, err = strconv.Atoi(args[0]); err != nil || page < 1 {
			return 0, 0, fmt.Errorf("invalid page %q", args[0])
		}
	}
	if len(args) > 1 {
		if pageSize, err = strconv.Atoi(args[1]); err != nil || pageSize < 1 {
			return 0, 0, fmt.Errorf("invalid page size %q", args[1])
		}
	}
	return page, pageSize, nil
}
