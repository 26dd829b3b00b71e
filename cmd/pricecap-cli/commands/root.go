// Package commands implements the CLI commands for pricecap.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raul-padua/agentic-product-price-scrapping/app"
	"github.com/raul-padua/agentic-product-price-scrapping/config"
)

var rootCmd = &cobra.Command{
	Use:   "pricecap",
	Short: "Capture product prices and promotions from shop pages",
	Long: `Pricecap opens product pages in a headless browser, extracts title,
price and promotions, and refines them through the refine service.

Examples:
  # Capture one page
  pricecap capture "https://www.amazon.com/dp/B0CHX1W1XY"

  # Capture several pages with two workers, YAML output
  pricecap capture -w 2 -o yaml https://a.example/p/1 https://b.example/p/2

  # Search listings on specific sites
  pricecap search "iphone 15 128gb" --sites "amazon.com, mercadolivre.com.br"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.pricecap.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringP("output", "o", "json", "output format: json or yaml")
	rootCmd.PersistentFlags().String("locale", "", "hardening profile: en-US or pt-BR")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("locale", rootCmd.PersistentFlags().Lookup("locale"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".pricecap")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PRICECAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logError("%v", err)
		return err
	}
	return nil
}

// loadConfig layers flags and the config file over the environment
// configuration.
func loadConfig() *config.Config {
	cfg := config.Load()
	cfg.Log.Format = "text"
	if viper.GetBool("debug") {
		cfg.Log.Level = "debug"
	} else if !viper.IsSet("log_level") {
		cfg.Log.Level = "warn"
	}
	if v := viper.GetString("locale"); v != "" {
		cfg.Browser.Locale = v
	}
	if v := viper.GetInt("workers"); v > 0 {
		cfg.Pipeline.Workers = v
	}
	if v := viper.GetString("refine_url"); v != "" {
		cfg.Refine.BaseURL = v
	}
	if v := viper.GetString("search_api_key"); v != "" {
		cfg.Search.APIKey = v
	}
	if viper.GetBool("static_fallback") {
		cfg.Capture.StaticFallback = true
	}
	slog.SetDefault(app.NewLogger(cfg.Log, os.Stderr))
	return cfg
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
