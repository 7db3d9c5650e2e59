// cmd/contactcheck validates contact-form values from a file and prints the
// field errors.  Exits 1 when the values are invalid.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	rootCmd := checkCmd()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}
