package main

import (
	"fmt"
	"os"

	"github.com/reviewbadge/reviewbadge/pkg/mcp"
)

func main() {
	endpoint := os.Getenv("REVIEWBADGE_URL")
	s := mcp.NewServer(endpoint)
	if err := s.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %v\n", err)
		os.Exit(1)
	}
}
