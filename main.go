package main

import (
	"log"

	"hubspot-connector/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
