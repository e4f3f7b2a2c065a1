package main

import "vss-tools/internal/cli"

func main() {
	cli.Execute()
}
