package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/KaiSwain/hammer-portfolio-django/internal/hammercli"
)

func main() {
	if err := hammercli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, hammercli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			hammercli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
