package models

// DefaultPageLimit is the page size every list surface requests.
const DefaultPageLimit = 12

// ListMeta is the pagination block carried by every list response next to the
// resource-named item array.
type ListMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

var Categories = []string{
	"funny",
	"reaction",
	"animals",
	"gaming",
	"movies",
	"sports",
	"politics",
	"wholesome",
	"other",
}

var CollaborationTypes = []string{"meme", "template", "challenge"}

var (
	MemeSorts          = []string{"newest", "popular", "trending"}
	TemplateSorts      = []string{"newest", "popular", "most_used", "top_rated"}
	ChallengeSorts     = []string{"newest", "ending_soon", "popular"}
	GroupSorts         = []string{"newest", "popular", "name"}
	CollaborationSorts = []string{"newest", "updated", "title"}
	FolderSorts        = []string{"newest", "name", "updated"}
	CommentSorts       = []string{"newest", "oldest", "popular"}
)

func Contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// CatalogStats are the row counts reported by the status endpoint.
type CatalogStats struct {
	Users          int `json:"users"`
	Memes          int `json:"memes"`
	Templates      int `json:"templates"`
	Folders        int `json:"folders"`
	Collaborations int `json:"collaborations"`
	Comments       int `json:"comments"`
	Challenges     int `json:"challenges"`
	Groups         int `json:"groups"`
}

const (
	KindMeme      = "meme"
	KindTemplate  = "template"
	KindGroup     = "group"
	KindChallenge = "challenge"
)

var SearchKinds = []string{KindMeme, KindTemplate, KindGroup, KindChallenge}

// SearchHit is one public catalog entry matched by a cross-resource search.
type SearchHit struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Owner    string `json:"owner"`
	Created  string `json:"created"`
}
