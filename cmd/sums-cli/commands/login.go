package commands

import (
	"errors"
	"log/slog"
	"sums-scraper/lib/scrapers/sums"
	"sums-scraper/lib/util/configutil"
	"sums-scraper/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Checks that the configured credentials authenticate against the portal.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		username, password := readCredentials()

		ctx := serviceutil.SignalContext()
		client := createClient(ctx, cfg)
		defer client.Close()

		err = client.Authenticate(ctx, username, password)
		var rejected *sums.RejectedError
		if errors.As(err, &rejected) {
			serviceutil.Fatal("the portal rejected the credentials", rejected)
		}
		if err != nil {
			serviceutil.Fatal("login flow broke", err)
		}

		slog.Info("credentials accepted", "username", username)
	},
}
