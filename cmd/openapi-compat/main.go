// Package main checks that the published API stays compatible with the
// editor extensions already installed in the wild.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"stories/docs"
)

func main() {
	basePath := flag.String("base", "", "base OpenAPI swagger.yaml or swagger.json path (optional)")
	revisionPath := flag.String("revision", "", "revision spec path (defaults to the spec compiled into this binary)")
	flag.Parse()

	revisionRaw, err := readRevision(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read revision spec: %v\n", err)
		os.Exit(1)
	}
	revision, err := parseSpec(revisionRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision spec: %v\n", err)
		os.Exit(1)
	}

	issues := checkRequiredRoutes(revision)

	if strings.TrimSpace(*basePath) != "" {
		// #nosec G304: path comes from CLI flags in a dev tool
		raw, err := os.ReadFile(*basePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read base spec: %v\n", err)
			os.Exit(1)
		}
		base, err := parseSpec(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load base spec: %v\n", err)
			os.Exit(1)
		}
		issues = append(issues, compare(base, revision)...)
	}

	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Println("openapi compatibility check passed")
}

func readRevision(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return []byte(docs.SwaggerInfo.ReadDoc()), nil
	}
	// #nosec G304: path comes from CLI flags in a dev tool
	return os.ReadFile(path)
}
