package main

import (
	"github.com/WaveringAna/wisp/cmd/wisp/cmd"
)

func main() {
	cmd.Execute()
}
