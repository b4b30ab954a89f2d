package domain

import "context"

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks -source=storage.go

// CollectionClient fetches collection data from the remote API.
type CollectionClient interface {
	FetchCollectionPage(ctx context.Context, username string, page, perPage int) (*CollectionPage, error)
}

// Annotator creates an annotation (for example a note document) for an
// entry in the host application and returns an opaque reference to it.
type Annotator interface {
	Annotate(ctx context.Context, entry CacheEntry) (string, error)
}
