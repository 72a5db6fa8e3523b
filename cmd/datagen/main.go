// Command datagen writes a synthetic marketplace dataset to JSON files for
// local development and load testing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sundeep8967/zerobroker/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()

	var out string
	flag.StringVar(&out, "out", "./data", "output directory")
	flag.IntVar(&cfg.NumUsers, "users", cfg.NumUsers, "number of users to generate")
	flag.IntVar(&cfg.NumProperties, "properties", cfg.NumProperties, "number of properties to generate")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flag.Parse()

	dataset := generator.Generate(cfg)
	if err := generator.WriteDataset(dataset, out); err != nil {
		fmt.Fprintf(os.Stderr, "write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d users and %d properties to %s\n", len(dataset.Users), len(dataset.Properties), out)
}
