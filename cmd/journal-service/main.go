package main

import (
	"os"

	"github.com/solace-journal/solace-server/journalservice"
)

func main() {
	if err := journalservice.Run(); err != nil {
		os.Exit(1)
	}
}
