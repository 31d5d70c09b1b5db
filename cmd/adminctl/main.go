// Command adminctl watches the admin console feeds from a terminal and
// submits review decisions.
//
//	adminctl watch  -url http://localhost:8080 -email ops@example.com -password ...
//	adminctl review -url ... -token ... -id <listing> -action reject -reason "blurry photos"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estatehub/pkg/client"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: adminctl <watch|review> [flags]")
	os.Exit(2)
}

type common struct {
	baseURL  string
	token    string
	email    string
	password string
	lang     string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.baseURL, "url", envOr("ESTATEHUB_URL", "http://localhost:8080"), "API base URL")
	fs.StringVar(&c.token, "token", os.Getenv("ESTATEHUB_TOKEN"), "admin bearer token")
	fs.StringVar(&c.email, "email", os.Getenv("ESTATEHUB_EMAIL"), "admin email, used when no token is given")
	fs.StringVar(&c.password, "password", os.Getenv("ESTATEHUB_PASSWORD"), "admin password")
	fs.StringVar(&c.lang, "lang", "en", "message language")
}

func (c *common) client(ctx context.Context) (*client.Client, error) {
	api := client.New(c.baseURL, c.token, client.WithLanguage(c.lang))
	if c.token == "" {
		if c.email == "" {
			return nil, errors.New("either -token or -email/-password is required")
		}
		if err := api.Login(ctx, c.email, c.password); err != nil {
			return nil, err
		}
	}
	return api, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "watch":
		err = watch(ctx, os.Args[2:])
	case "review":
		err = review(ctx, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func watch(ctx context.Context, args []string) error {
	var opts common
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	opts.register(fs)
	interval := fs.Duration("interval", 30*time.Second, "poll interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	api, err := opts.client(ctx)
	if err != nil {
		return err
	}

	appointments := client.NewPoller(*interval, api.AppointmentCount, func(n int) {
		color.Green("%s  %d new appointment request(s)", time.Now().Format("15:04:05"), n)
	})
	activity := client.NewPoller(*interval, api.ActivityCount, func(n int) {
		feed, err := api.RecentActivity(ctx, n)
		if err != nil {
			color.Cyan("%s  %d new admin action(s)", time.Now().Format("15:04:05"), n)
			return
		}
		for _, a := range feed.Activities {
			color.Cyan("%s  %s %s %s %s", time.Now().Format("15:04:05"), a.AdminName, a.Action, a.Module, a.EntityName)
		}
	})

	// the first foreground refresh surfaces auth or network problems
	if err := appointments.RefreshNow(ctx); err != nil {
		return err
	}
	if err := activity.RefreshNow(ctx); err != nil {
		return err
	}

	color.White("watching %s every %s, Ctrl+C to stop", opts.baseURL, *interval)
	appointments.Start(ctx)
	activity.Start(ctx)
	<-ctx.Done()
	appointments.Stop()
	activity.Stop()
	return nil
}

func review(ctx context.Context, args []string) error {
	var opts common
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	opts.register(fs)
	id := fs.String("id", "", "listing id")
	action := fs.String("action", "", "approve, reject, needs_edit or revert_to_pending")
	reason := fs.String("reason", "", "justification, required for reject and needs_edit")
	list := fs.String("list", "", "list listings in this review status instead of deciding")
	if err := fs.Parse(args); err != nil {
		return err
	}

	api, err := opts.client(ctx)
	if err != nil {
		return err
	}

	if *list != "" {
		page, err := api.ListForReview(ctx, *list, 1, 50)
		if err != nil {
			return err
		}
		s := page.Stats
		color.White("pending %d  approved %d  rejected %d  needs edit %d", s.Pending, s.Approved, s.Rejected, s.NeedsEdit)
		for _, l := range page.Properties {
			fmt.Printf("%s  %-10s  %-12s  %s\n", l.ID, l.ReviewStatus, l.City, l.Title)
		}
		return nil
	}

	if *id == "" || *action == "" {
		return errors.New("-id and -action are required")
	}
	listing, err := api.SubmitDecision(ctx, *id, *action, *reason)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Code == "INVALID_TRANSITION" {
			color.Yellow("%s", apiErr.Message)
			return nil
		}
		return err
	}
	color.Green("%s is now %s", listing.Title, listing.ReviewStatus)
	return nil
}
