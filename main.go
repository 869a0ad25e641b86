package main

import (
	"os"

	"github.com/imadezze/ClassificationAlloBrain/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
