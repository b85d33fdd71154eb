package main

import "photo-catalog/internal/cli"

func main() {
	cli.Execute()
}
