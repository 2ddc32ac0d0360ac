package main

import (
	"github.com/leighmacdonald/rirblock/internal/cmd"
)

func main() {
	cmd.Execute()
}
