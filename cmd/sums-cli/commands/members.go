package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sums-scraper/lib/rosterstore"
	"sums-scraper/lib/scrapers/sums"
	"sums-scraper/lib/util/configutil"
	"sums-scraper/lib/util/serviceutil"
	"sums-scraper/lib/util/sqliteutil"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	Endpoint        string        `json:"endpoint"`
	GroupId         uint16        `json:"group_id"`
	BaseUrl         string        `json:"base_url"`
	DashboardOrigin string        `json:"dashboard_origin"`
	Locators        sums.Locators `json:"locators"`
}

var snapshotDb *string

func init() {
	snapshotDb = membersCmd.Flags().String("db", "", "Also push the roster into a snapshot database at this path.")
	rootCmd.AddCommand(membersCmd)
}

func readCredentials() (string, string) {
	username := os.Getenv("SUMS_USERNAME")
	password := os.Getenv("SUMS_PASSWORD")
	if username == "" || password == "" {
		serviceutil.Fatal(
			"missing credentials",
			errors.New("set SUMS_USERNAME and SUMS_PASSWORD"),
		)
	}
	return username, password
}

func createClient(ctx context.Context, cfg Config) *sums.Client {
	client, err := sums.NewClient(ctx, sums.ClientOptions{
		GroupID:         cfg.GroupId,
		Endpoint:        cfg.Endpoint,
		BaseURL:         cfg.BaseUrl,
		DashboardOrigin: cfg.DashboardOrigin,
		Locators:        cfg.Locators,
	})
	if err != nil {
		serviceutil.Fatal("failed to connect to automation endpoint", err)
	}
	return client
}

var membersCmd = &cobra.Command{
	Use:   "members [--db <path/to/snapshots.db>]",
	Short: "Scrapes the configured group's member roster and prints it.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		username, password := readCredentials()

		ctx := serviceutil.SignalContext()
		client := createClient(ctx, cfg)
		defer client.Close()

		slog.Info("authenticating", "username", username)
		err = client.Authenticate(ctx, username, password)
		var rejected *sums.RejectedError
		if errors.As(err, &rejected) {
			serviceutil.Fatal("the portal rejected the credentials", rejected)
		}
		if err != nil {
			serviceutil.Fatal("login flow broke", err)
		}

		t1 := time.Now()
		members, err := client.ListMembers(ctx)
		if err != nil {
			serviceutil.Fatal("failed to list members", err)
		}
		slog.Info("scraped roster",
			"group_id", cfg.GroupId,
			"members", len(members),
			"seconds", time.Since(t1).Seconds(),
		)

		renderRoster(members)

		if *snapshotDb != "" {
			pushSnapshot(ctx, cfg.GroupId, *snapshotDb, members)
		}
	},
}

func renderRoster(members []sums.Member) {
	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.AppendHeader(table.Row{"Student ID", "Name", "Kind", "Subscription", "Date Joined"})
	for _, m := range members {
		w.AppendRow(table.Row{
			string(m.StudentID),
			m.Name,
			string(m.Kind),
			m.Subscription,
			m.DateJoined.Format("2006-01-02"),
		})
	}
	w.Render()
}

func pushSnapshot(ctx context.Context, groupId uint16, path string, members []sums.Member) {
	db, err := sqliteutil.OpenDB(rosterstore.Schema, path)
	if err != nil {
		serviceutil.Fatal("failed to open snapshot db", err)
	}
	defer db.Close()

	records := make([]rosterstore.MemberRecord, len(members))
	for i, m := range members {
		records[i] = rosterstore.MemberRecord{
			StudentID:    string(m.StudentID),
			Name:         m.Name,
			Kind:         string(m.Kind),
			Subscription: m.Subscription,
			DateJoined:   m.DateJoined,
		}
	}
	err = rosterstore.NewStore(db).Push(ctx, rosterstore.Snapshot{
		GroupID: groupId,
		Time:    time.Now(),
		Members: records,
	})
	if err != nil {
		serviceutil.Fatal("failed to push roster snapshot", err)
	}
	slog.Info("pushed roster snapshot", "db", path)
}
