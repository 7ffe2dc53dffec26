package main

import (
	"github.com/boardblitz/boardblitz/internal/cli"
)

func main() {
	cli.Execute()
}
