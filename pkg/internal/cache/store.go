package cache

import (
	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/store"
	ristrettoStore "github.com/eko/gocache/store/ristretto/v4"
)

var S store.StoreInterface

func NewStore() error {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return err
	}

	S = ristrettoStore.NewRistretto(ristrettoCache)

	return nil
}
