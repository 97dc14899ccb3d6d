package main

import (
	"log"

	"meetup-api/cmd"
	_ "meetup-api/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
