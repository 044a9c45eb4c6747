package chainmap_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hupe1980/chainmap"
)

// Example demonstrates storing stealth rows and scanning them by prefix.
func Example() {
	dir, err := os.MkdirTemp("", "chainmap-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := chainmap.Open(dir)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	for i, prefix := range []uint32{0xA0000000, 0x40000000, 0xB0000000} {
		if err := db.Store(ctx, chainmap.Row{Prefix: prefix, Height: 1000 + uint32(i)}); err != nil {
			log.Fatal(err)
		}
	}

	filter, err := chainmap.ParseFilter("101")
	if err != nil {
		log.Fatal(err)
	}
	rows, err := db.Scan(ctx, filter, 1000)
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range rows {
		fmt.Printf("height %d prefix %08x\n", r.Height, r.Prefix)
	}
	// Output:
	// height 1000 prefix a0000000
	// height 1002 prefix b0000000
}
