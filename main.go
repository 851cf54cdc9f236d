package main

import (
	"os"

	"github.com/vendahub/vendahub/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
