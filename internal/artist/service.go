package artist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// artistColumns is the ordered list of columns for SELECT queries.
const artistColumns = `id, mbid, wikidata_id, name, sort_name, country,
	aliases, begin_date, end_date, image_url, image_source, created_at, updated_at`

// Service provides artist and relation data operations.
type Service struct {
	db *sql.DB
}

// NewService creates an artist service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create inserts a new artist.
func (s *Service) Create(ctx context.Context, a *Artist) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artists (
			id, mbid, wikidata_id, name, sort_name, country,
			aliases, begin_date, end_date, image_url, image_source, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, nullIfEmpty(a.MBID), a.WikidataID, a.Name, a.SortName, a.Country,
		MarshalStringSlice(a.Aliases), a.BeginDate, a.EndDate, a.ImageURL, string(a.ImageSource),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating artist: %w", err)
	}
	return nil
}

// Update overwrites an artist's mutable fields and refreshes the update
// timestamp. ID and created_at are untouched.
func (s *Service) Update(ctx context.Context, a *Artist) error {
	now := time.Now().UTC()
	a.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		UPDATE artists SET
			mbid = ?, wikidata_id = ?, name = ?, sort_name = ?, country = ?,
			aliases = ?, begin_date = ?, end_date = ?, image_url = ?, image_source = ?,
			updated_at = ?
		WHERE id = ?
	`,
		nullIfEmpty(a.MBID), a.WikidataID, a.Name, a.SortName, a.Country,
		MarshalStringSlice(a.Aliases), a.BeginDate, a.EndDate, a.ImageURL, string(a.ImageSource),
		now.Format(time.RFC3339), a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating artist: %w", err)
	}
	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("artist not found: %s", a.ID)
	}
	return nil
}

// GetByID retrieves an artist by primary key. Returns (nil, nil) when absent.
func (s *Service) GetByID(ctx context.Context, id string) (*Artist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting artist by id: %w", err)
	}
	return a, nil
}

// GetByMBID retrieves an artist by MusicBrainz ID. Returns (nil, nil) when absent.
func (s *Service) GetByMBID(ctx context.Context, mbid string) (*Artist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE mbid = ?`, mbid)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting artist by mbid: %w", err)
	}
	return a, nil
}

// GetByName retrieves an artist by display name, case-insensitively.
// Returns (nil, nil) when absent.
func (s *Service) GetByName(ctx context.Context, name string) (*Artist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE name = ? COLLATE NOCASE`, name)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting artist by name: %w", err)
	}
	return a, nil
}

// ListAll retrieves every artist, ordered by name.
func (s *Service) ListAll(ctx context.Context) ([]Artist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("listing artists: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var artists []Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		artists = append(artists, *a)
	}
	return artists, rows.Err()
}

// Search finds artists whose name or sort name contains the query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Artist, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists
		 WHERE name LIKE ? OR sort_name LIKE ?
		 ORDER BY name COLLATE NOCASE LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching artists: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var artists []Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning artist: %w", err)
		}
		artists = append(artists, *a)
	}
	return artists, rows.Err()
}

// Counts returns the total number of artists and relations.
func (s *Service) Counts(ctx context.Context) (artists int, relations int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists`).Scan(&artists); err != nil {
		return 0, 0, fmt.Errorf("counting artists: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artist_relations`).Scan(&relations); err != nil {
		return 0, 0, fmt.Errorf("counting relations: %w", err)
	}
	return artists, relations, nil
}

// CreateRelation inserts a new directed relation.
func (s *Service) CreateRelation(ctx context.Context, r *Relation) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now

	var strength any
	if r.Strength != nil {
		strength = *r.Strength
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artist_relations (
			id, from_artist_id, to_artist_id, relation_type, strength, source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.FromArtistID, r.ToArtistID, r.RelationType, strength, r.Source,
		now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("creating relation: %w", err)
	}
	return nil
}

// RelationExists reports whether any relation connects the unordered pair
// (a, b), in either direction, with one query.
func (s *Service) RelationExists(ctx context.Context, a, b string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM artist_relations
		WHERE (from_artist_id = ? AND to_artist_id = ?)
		   OR (from_artist_id = ? AND to_artist_id = ?)
		LIMIT 1
	`, a, b, b, a).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking relation existence: %w", err)
	}
	return true, nil
}

// RelationsFrom retrieves the outbound relations of an artist joined with
// their target artists.
func (s *Service) RelationsFrom(ctx context.Context, id string) ([]RelationWithTarget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.relation_type, r.strength, r.source,
			a.id, a.mbid, a.wikidata_id, a.name, a.sort_name, a.country,
			a.aliases, a.begin_date, a.end_date, a.image_url, a.image_source,
			a.created_at, a.updated_at
		FROM artist_relations r
		JOIN artists a ON a.id = r.to_artist_id
		WHERE r.from_artist_id = ?
		ORDER BY r.strength DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var relations []RelationWithTarget
	for rows.Next() {
		var rt RelationWithTarget
		var strength sql.NullFloat64
		var mbid, imageSource sql.NullString
		var aliases, createdAt, updatedAt string
		err := rows.Scan(&rt.RelationType, &strength, &rt.Source,
			&rt.Artist.ID, &mbid, &rt.Artist.WikidataID, &rt.Artist.Name,
			&rt.Artist.SortName, &rt.Artist.Country, &aliases,
			&rt.Artist.BeginDate, &rt.Artist.EndDate, &rt.Artist.ImageURL,
			&imageSource, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		if strength.Valid {
			v := strength.Float64
			rt.Strength = &v
		}
		rt.Artist.MBID = mbid.String
		rt.Artist.ImageSource = ImageSource(imageSource.String)
		rt.Artist.Aliases = UnmarshalStringSlice(aliases)
		rt.Artist.CreatedAt = parseTime(createdAt)
		rt.Artist.UpdatedAt = parseTime(updatedAt)
		relations = append(relations, rt)
	}
	return relations, rows.Err()
}

// TopConnected returns the names of the artists with the most relations
// (inbound plus outbound), most connected first.
func (s *Service) TopConnected(ctx context.Context, limit int) ([]ConnectionCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.name, COUNT(*) AS connections
		FROM artists a
		JOIN artist_relations r ON r.from_artist_id = a.id OR r.to_artist_id = a.id
		GROUP BY a.id
		ORDER BY connections DESC, a.name
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing top connected: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var counts []ConnectionCount
	for rows.Next() {
		var c ConnectionCount
		if err := rows.Scan(&c.Name, &c.Connections); err != nil {
			return nil, fmt.Errorf("scanning connection count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ConnectionCount pairs an artist name with its relation count.
type ConnectionCount struct {
	Name        string `json:"name"`
	Connections int    `json:"connections"`
}

// UpsertGenres links the given genre labels to an artist, creating genre
// rows as needed. Existing links are left alone.
func (s *Service) UpsertGenres(ctx context.Context, artistID string, genres []string, source string) error {
	for _, name := range genres {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		var genreID string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM genres WHERE name = ?`, name).Scan(&genreID)
		if errors.Is(err, sql.ErrNoRows) {
			genreID = uuid.New().String()
			if _, err := s.db.ExecContext(ctx,
				`INSERT INTO genres (id, name) VALUES (?, ?)`, genreID, name); err != nil {
				return fmt.Errorf("creating genre %q: %w", name, err)
			}
		} else if err != nil {
			return fmt.Errorf("looking up genre %q: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO artist_genres (artist_id, genre_id, weight, source)
			VALUES (?, ?, 1.0, ?)
			ON CONFLICT (artist_id, genre_id) DO NOTHING
		`, artistID, genreID, source); err != nil {
			return fmt.Errorf("linking genre %q: %w", name, err)
		}
	}
	return nil
}

// GenresFor returns the genre labels linked to an artist.
func (s *Service) GenresFor(ctx context.Context, artistID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.name FROM genres g
		JOIN artist_genres ag ON ag.genre_id = g.id
		WHERE ag.artist_id = ?
		ORDER BY g.name
	`, artistID)
	if err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var genres []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning genre: %w", err)
		}
		genres = append(genres, name)
	}
	return genres, rows.Err()
}

func scanArtist(row interface{ Scan(...any) error }) (*Artist, error) {
	var a Artist
	var mbid, imageSource sql.NullString
	var aliases, createdAt, updatedAt string
	err := row.Scan(&a.ID, &mbid, &a.WikidataID, &a.Name, &a.SortName, &a.Country,
		&aliases, &a.BeginDate, &a.EndDate, &a.ImageURL, &imageSource,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.MBID = mbid.String
	a.ImageSource = ImageSource(imageSource.String)
	a.Aliases = UnmarshalStringSlice(aliases)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

// nullIfEmpty maps "" to NULL so the unique index on mbid ignores artists
// without one.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
