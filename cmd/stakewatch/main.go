package main

import "stake-bet-watcher/internal/cli"

func main() {
	cli.Execute()
}
