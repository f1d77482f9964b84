package main

import (
	"os"

	"angels_reviews/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
