package main

import "github.com/custodia-labs/websearch-cli/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
