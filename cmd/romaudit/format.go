package main

import "github.com/dustin/go-humanize"

// humanSize renders a byte count the way file listings do, e.g. "1.4 MB".
func humanSize(n uint64) string {
	return humanize.Bytes(n)
}
