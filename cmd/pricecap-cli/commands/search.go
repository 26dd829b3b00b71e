package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raul-padua/agentic-product-price-scrapping/app"
	"github.com/raul-padua/agentic-product-price-scrapping/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for product listings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("sites", "", "domains to restrict listings to (comma or space separated)")
	searchCmd.Flags().String("api-key", "", "search provider API key")

	_ = viper.BindPFlag("search_api_key", searchCmd.Flags().Lookup("api-key"))
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()

	services, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	sites, _ := cmd.Flags().GetString("sites")
	resp, err := services.Curator.Search(ctx, strings.Join(args, " "), search.SplitDomains(sites))
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), viper.GetString("output"), resp)
}
