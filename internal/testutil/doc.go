// Package testutil provides deterministic random data for tests.
//
//	rng := testutil.NewRNG(seed)
//	var txid [32]byte
//	rng.Fill(txid[:])
//	heights := rng.Heights(100, 800_000, 3) // ascending, gaps of 0..3
package testutil
