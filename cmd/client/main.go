package main

import "github.com/portside/battleship/internal/cli"

func main() {
	cli.Execute()
}
