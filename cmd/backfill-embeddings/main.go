// Command backfill-embeddings re-embeds every stored feedback record and upserts it into the
// configured vector index, outside the API server. Safe to re-run: upserts are idempotent.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
