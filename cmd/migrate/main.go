package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/certitax/certitax/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL must be set")
		os.Exit(1)
	}

	if err := migrate.Run(dsn, *direction); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *direction, err)
		os.Exit(1)
	}

	fmt.Printf("migrations %s applied\n", *direction)
}
