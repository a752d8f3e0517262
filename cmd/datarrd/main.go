package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vmunix/datarr/internal/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (searched for when empty)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("datarrd %s\n", version)
		os.Exit(0)
	}

	if err := server.Run(*configPath, version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
