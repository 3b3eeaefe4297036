// Package main provides the entry point for the trovo CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/trovo/cmd/trovo/cmd"
	trovoerrors "github.com/Aman-CERP/trovo/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, trovoerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
