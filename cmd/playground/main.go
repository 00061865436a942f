package main

import "github.com/aralila/playground-client/internal/cli"

func main() {
	cli.Execute()
}
