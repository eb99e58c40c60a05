package common

import "github.com/nspcc-dev/neo-go/pkg/interop/storage"

// GetInt returns integer stored by key or 0 if there is no such item.
func GetInt(ctx storage.Context, key any) int {
	data := storage.Get(ctx, key)
	if data != nil {
		return data.(int)
	}

	return 0
}

// PutInt stores integer by key. Zero values are removed from the storage
// instead, so GetInt and PutInt keep storage free of default items.
func PutInt(ctx storage.Context, key any, value int) {
	if value == 0 {
		storage.Delete(ctx, key)
		return
	}
	storage.Put(ctx, key, value)
}
