package main

import (
	"log"

	"github.com/chazu/plinth/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatal(err.Error())
	}
}
