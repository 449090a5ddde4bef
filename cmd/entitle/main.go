package main

import "github.com/wippyai/entitle/internal/cli"

func main() {
	cli.Execute()
}
