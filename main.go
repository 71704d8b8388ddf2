package main

import (
	"os"

	"github.com/chemsLazar/recrutement-intern-modelIA/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
