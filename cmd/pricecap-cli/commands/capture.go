package commands

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raul-padua/agentic-product-price-scrapping/app"
	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

var captureCmd = &cobra.Command{
	Use:   "capture <url>...",
	Short: "Capture product data from one or more pages",
	Long: `Capture renders each URL, extracts title, price and promotions, and
refines the result. Results are printed in input order; a failing URL is
reported in place and does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().IntP("workers", "w", 0, "number of pages captured concurrently")
	captureCmd.Flags().String("refine-url", "", "refine service base URL")
	captureCmd.Flags().Bool("static-fallback", false, "fetch over plain HTTP when no browser is available")
	captureCmd.Flags().Bool("no-screenshot", false, "omit screenshots from the output")

	_ = viper.BindPFlag("workers", captureCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("refine_url", captureCmd.Flags().Lookup("refine-url"))
	_ = viper.BindPFlag("static_fallback", captureCmd.Flags().Lookup("static-fallback"))
}

func runCapture(cmd *cobra.Command, args []string) error {
	for _, a := range args {
		if u, err := url.ParseRequestURI(a); err != nil || u.Host == "" {
			return fmt.Errorf("invalid URL %q", a)
		}
	}

	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	services, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	results := services.Orchestrator.RunBatch(ctx, args)

	if noShot, _ := cmd.Flags().GetBool("no-screenshot"); noShot {
		stripScreenshots(results)
	}

	var out any = models.RunResponse{Results: results}
	if len(results) == 1 {
		out = results[0]
	}
	return writeOutput(cmd.OutOrStdout(), viper.GetString("output"), out)
}

func stripScreenshots(results []models.RunResult) {
	for i := range results {
		if results[i].Data != nil {
			results[i].Data.ScreenshotBase64 = ""
		}
	}
}
