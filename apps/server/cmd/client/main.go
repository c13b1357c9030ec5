package main

import "blackjack-lite/apps/server/internal/cli"

func main() {
	cli.Execute()
}
