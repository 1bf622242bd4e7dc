package main

import "inventory/m/internal/cli"

func main() {
	cli.Execute()
}
