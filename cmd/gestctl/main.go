// Package main provides the gestcom operator CLI.
// Usage: gestctl totals line --qty 5 --price 45.5
//        gestctl totals document --kind invoice --line 5:45.5 --line 50:35:10
//        gestctl reference next invoice --date 2024-03-01
//        gestctl seed
//        gestctl migrate
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
