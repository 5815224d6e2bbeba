// Command vidya is the offline textbook tutor CLI: build bundles from
// JSONL corpora, inspect them, and answer questions against them.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
