package main

import (
	"chaosdrive/internal/cli"
)

func main() {
	cli.Execute()
}
