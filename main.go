package main

import (
	"log"

	"github.com/thiagokokada/tigo/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("tigo: %v", err)
	}
}
