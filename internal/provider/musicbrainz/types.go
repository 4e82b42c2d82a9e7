package musicbrainz

// MusicBrainz API response types.

// SearchResponse is the top-level response from the artist search endpoint.
type SearchResponse struct {
	Created string     `json:"created"`
	Count   int        `json:"count"`
	Offset  int        `json:"offset"`
	Artists []MBArtist `json:"artists"`
}

// MBArtist represents a MusicBrainz artist entity.
type MBArtist struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	SortName  string       `json:"sort-name"`
	Country   string       `json:"country"`
	Score     int          `json:"score"`
	LifeSpan  MBLifeSpan   `json:"life-span"`
	Aliases   []MBAlias    `json:"aliases"`
	Relations []MBRelation `json:"relations"`
}

// MBLifeSpan represents the begin/end dates of an artist.
type MBLifeSpan struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
	Ended bool   `json:"ended"`
}

// MBAlias represents an alternative name for an artist.
type MBAlias struct {
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
	Type     string `json:"type"`
	Locale   string `json:"locale"`
	Primary  bool   `json:"primary"`
}

// MBRelation represents a relationship between an artist and another entity.
// Artist is nil for non-artist relations (URLs, recordings and so on).
type MBRelation struct {
	Type       string    `json:"type"`
	TargetType string    `json:"target-type"`
	Direction  string    `json:"direction"`
	Attributes []string  `json:"attributes"`
	Begin      string    `json:"begin"`
	End        string    `json:"end"`
	Ended      bool      `json:"ended"`
	Artist     *MBArtist `json:"artist,omitempty"`
}
