// Package main provides the Steer ML Framework CLI.
package main

import (
	"fmt"
	"os"

	"github.com/steer-ml/steer/group"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Steer ML Framework %s\n", version)
			return
		case "groups":
			listGroups()
			return
		}
	}

	fmt.Println("Steer ML Framework - Equivariant CNNs for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  groups     List built-in symmetry groups and their irreps")
}

func listGroups() {
	for _, spec := range []string{"C1", "C2", "C4", "C8", "D1", "D2", "D4", "D8"} {
		g, err := group.Build(spec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "steer: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%-4s order %-3d irreps:", g.Name(), g.Order())
		for _, r := range g.Irreps() {
			fmt.Printf(" %s(%d)", r.Name(), r.Dim())
		}
		fmt.Println()
	}
}
