// Package artist holds the canonical artist graph: artist records, weighted
// relations between them, and the bounded-depth neighborhood query.
package artist

import (
	"encoding/json"
	"time"
)

// ImageSource tags where an artist's image URL came from.
type ImageSource string

// Known image sources. Empty means no image.
const (
	ImageSourceWikidata ImageSource = "wikidata"
	ImageSourceLastFM   ImageSource = "lastfm"
	ImageSourceNone     ImageSource = ""
)

// Artist is the canonical local record for a music artist or group.
type Artist struct {
	ID          string      `json:"id"`
	MBID        string      `json:"mbid,omitempty"`
	WikidataID  string      `json:"wikidata_id,omitempty"`
	Name        string      `json:"name"`
	SortName    string      `json:"sort_name,omitempty"`
	Country     string      `json:"country,omitempty"`
	Aliases     []string    `json:"aliases"`
	BeginDate   string      `json:"begin_date,omitempty"`
	EndDate     string      `json:"end_date,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	ImageSource ImageSource `json:"image_source,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Relation is a directed, weighted edge between two artists. Strength is
// nil when undetermined.
type Relation struct {
	ID           string    `json:"id"`
	FromArtistID string    `json:"from_artist_id"`
	ToArtistID   string    `json:"to_artist_id"`
	RelationType string    `json:"relation_type"`
	Strength     *float64  `json:"strength"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"created_at"`
}

// RelationWithTarget joins an outbound relation with its target artist,
// for the artist detail endpoint.
type RelationWithTarget struct {
	RelationType string   `json:"relation_type"`
	Strength     *float64 `json:"strength"`
	Source       string   `json:"source"`
	Artist       Artist   `json:"artist"`
}

// MarshalStringSlice encodes a string slice as a JSON array string.
func MarshalStringSlice(s []string) string {
	if s == nil {
		return "[]"
	}
	data, _ := json.Marshal(s)
	return string(data)
}

// UnmarshalStringSlice decodes a JSON array string into a string slice.
func UnmarshalStringSlice(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var result []string
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil
	}
	return result
}
