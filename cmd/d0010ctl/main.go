package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// CLI runs outside the pods, .env in the working directory is the norm
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
