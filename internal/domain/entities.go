package domain

import "time"

// RemoteRecord is one collection entry as delivered by the Discogs API.
// InstanceID is unique per copy owned; ID identifies the release and may
// repeat when a user owns several copies.
type RemoteRecord struct {
	ID               int64            `json:"id"`
	InstanceID       int64            `json:"instance_id"`
	DateAdded        string           `json:"date_added"`
	Rating           int              `json:"rating"`
	FolderID         int64            `json:"folder_id"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// BasicInformation is the release summary nested in a RemoteRecord.
type BasicInformation struct {
	ID          int64    `json:"id"`
	MasterID    int64    `json:"master_id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Thumb       string   `json:"thumb"`
	CoverImage  string   `json:"cover_image"`
	ResourceURL string   `json:"resource_url"`
	Formats     []Format `json:"formats"`
	Labels      []Label  `json:"labels"`
	Artists     []Artist `json:"artists"`
	Genres      []string `json:"genres"`
	Styles      []string `json:"styles"`
}

type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Text         string   `json:"text,omitempty"`
	Descriptions []string `json:"descriptions,omitempty"`
}

type Label struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Catno string `json:"catno"`
}

type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	ANV  string `json:"anv"`
	Join string `json:"join"`
	Role string `json:"role"`
}

// CacheEntry is the flattened, locally persisted projection of a RemoteRecord.
type CacheEntry struct {
	ID            int64    `json:"id"`
	InstanceID    int64    `json:"instance_id"`
	Title         string   `json:"title"`
	Artist        string   `json:"artist"`
	Year          int      `json:"year"`
	CoverURL      string   `json:"cover_url"`
	ThumbURL      string   `json:"thumb_url"`
	DateAdded     string   `json:"date_added"`
	Genres        []string `json:"genres"`
	Styles        []string `json:"styles"`
	Format        string   `json:"format"`
	Label         string   `json:"label"`
	CatalogNumber string   `json:"catalog_number"`

	// User-owned; carried forward across syncs, never derived from remote data.
	HasAnnotation bool   `json:"has_annotation"`
	AnnotationRef string `json:"annotation_ref,omitempty"`

	IsNew bool `json:"is_new"`
}

// AddedAt parses DateAdded. The zero time is returned for unparsable values.
func (e CacheEntry) AddedAt() time.Time {
	t, err := time.Parse(time.RFC3339, e.DateAdded)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Metadata summarizes a CollectionSnapshot.
type Metadata struct {
	TotalCount          int        `json:"total_count"`
	CountWithAnnotation int        `json:"count_with_annotation"`
	LastSyncDurationMs  int64      `json:"last_sync_duration_ms"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty"`
}

// CollectionSnapshot is the persisted aggregate for one collection.
// It is replaced wholesale on every successful sync.
type CollectionSnapshot struct {
	Entries  []CacheEntry `json:"cache"`
	Metadata Metadata     `json:"metadata"`
}

// EmptySnapshot returns a snapshot with no entries and zeroed metadata.
func EmptySnapshot() *CollectionSnapshot {
	return &CollectionSnapshot{Entries: []CacheEntry{}}
}

// Find returns the index of the entry with the given instance ID, or -1.
func (s *CollectionSnapshot) Find(instanceID int64) int {
	for i := range s.Entries {
		if s.Entries[i].InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// CountAnnotated returns the number of entries carrying an annotation.
func CountAnnotated(entries []CacheEntry) int {
	n := 0
	for _, e := range entries {
		if e.HasAnnotation {
			n++
		}
	}
	return n
}

// Pagination is the paging envelope of a collection page.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// CollectionPage is one page of a user's collection.
type CollectionPage struct {
	Pagination Pagination     `json:"pagination"`
	Releases   []RemoteRecord `json:"releases"`
}
