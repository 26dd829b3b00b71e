package main

import (
	"os"

	"github.com/raul-padua/agentic-product-price-scrapping/cmd/pricecap-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
