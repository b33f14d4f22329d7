package main

import (
	"fmt"
	"os"

	"github.com/jason-s-yu/fourrow/internal/cli"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if err := cli.NewRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
