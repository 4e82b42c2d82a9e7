package lastfm

// Last.fm API response types.

// SimilarResponse is the top-level response from artist.getsimilar.
type SimilarResponse struct {
	SimilarArtists struct {
		Artist []LFMSimilarArtist `json:"artist"`
	} `json:"similarartists"`
}

// LFMSimilarArtist is a single similar-artist stub. Match is a decimal
// confidence in [0,1] serialized as a string.
type LFMSimilarArtist struct {
	Name  string `json:"name"`
	MBID  string `json:"mbid"`
	Match string `json:"match"`
	URL   string `json:"url"`
}
