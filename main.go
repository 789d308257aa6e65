package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mabhi256/r8shrink/cmd"
)

func main() {
	os.Args = expandArgFiles(os.Args)
	cmd.Execute()
}

// expandArgFiles splices the contents of every @file argument into the
// argument list in place, recursively, the way d8/r8's own CLI accepts
// @argfile batches of flags too long for a shell command line.
func expandArgFiles(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !strings.HasPrefix(a, "@") {
			out = append(out, a)
			continue
		}
		tokens, err := readArgFile(a[1:], map[string]bool{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "r8shrink: %v\n", err)
			os.Exit(1)
		}
		out = append(out, tokens...)
	}
	return out
}

func readArgFile(path string, seen map[string]bool) ([]string, error) {
	if seen[path] {
		return nil, fmt.Errorf("@%s: circular argument-file reference", path)
	}
	seen[path] = true

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("@%s: %w", path, err)
	}
	defer f.Close()

	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		for _, tok := range strings.Fields(sc.Text()) {
			if strings.HasPrefix(tok, "@") {
				nested, err := readArgFile(tok[1:], seen)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, nested...)
				continue
			}
			tokens = append(tokens, tok)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("@%s: %w", path, err)
	}
	return tokens, nil
}
