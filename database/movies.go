package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cinefeed/cinefeed/internal/etlerror"
	"github.com/cinefeed/cinefeed/model"
)

// movieSelect is the incremental extraction query for the movies pipeline.
//
// Eligibility: the movie and every joined relation must be active. A single
// inactive association or related row excludes the movie from the batch
// entirely, which the NOT EXISTS guards enforce.
//
// Window: last_touched is the GREATEST of the movie's updated_at and the
// updated_at of every association and related row. Filtering, ordering and
// checkpoint advancement all use this derived timestamp, so a relation edit
// or reactivation re-surfaces the movie even when the movie row itself is
// untouched.
const movieSelect = `
	SELECT
		m.movie_id,
		m.name_ru,
		m.name_eng,
		m.release_date,
		m.rating,
		m.age_rating,
		m.created_at,
		m.updated_at,
		GREATEST(
			m.updated_at,
			COALESCE(MAX(mp.updated_at), m.updated_at),
			COALESCE(MAX(p.updated_at), m.updated_at),
			COALESCE(MAX(mg.updated_at), m.updated_at),
			COALESCE(MAX(g.updated_at), m.updated_at)
		) AS last_touched,
		COALESCE(json_agg(DISTINCT jsonb_build_object(
			'person_id', p.person_id,
			'first_name', p.first_name,
			'second_name', p.second_name,
			'last_name', p.last_name,
			'birthday', p.birthday,
			'place_of_birth', p.place_of_birth,
			'role', p.type_employment
		)) FILTER (WHERE p.person_id IS NOT NULL), '[]') AS persons,
		COALESCE(json_agg(DISTINCT jsonb_build_object(
			'genre_id', g.genre_id,
			'title', g.title,
			'description', g.description,
			'age_rating', g.age_rating
		)) FILTER (WHERE g.genre_id IS NOT NULL), '[]') AS genres
	FROM cinema.movies m
	LEFT JOIN cinema.movies_persons mp ON mp.movie_id = m.movie_id AND mp.is_active = TRUE
	LEFT JOIN cinema.persons p ON p.person_id = mp.person_id AND p.is_active = TRUE
	LEFT JOIN cinema.movies_genres mg ON mg.movie_id = m.movie_id AND mg.is_active = TRUE
	LEFT JOIN cinema.genres g ON g.genre_id = mg.genre_id AND g.is_active = TRUE
	WHERE m.is_active = TRUE
	AND NOT EXISTS (
		SELECT 1 FROM cinema.movies_persons mp2
		JOIN cinema.persons p2 ON p2.person_id = mp2.person_id
		WHERE mp2.movie_id = m.movie_id AND (mp2.is_active = FALSE OR p2.is_active = FALSE)
	)
	AND NOT EXISTS (
		SELECT 1 FROM cinema.movies_genres mg2
		JOIN cinema.genres g2 ON g2.genre_id = mg2.genre_id
		WHERE mg2.movie_id = m.movie_id AND (mg2.is_active = FALSE OR g2.is_active = FALSE)
	)
	GROUP BY m.id`

// movieSince keeps the window inclusive: the row at exactly the checkpoint
// timestamp is re-extracted once, which the idempotent sink upsert absorbs.
const movieSince = `
	HAVING GREATEST(
		m.updated_at,
		COALESCE(MAX(mp.updated_at), m.updated_at),
		COALESCE(MAX(p.updated_at), m.updated_at),
		COALESCE(MAX(mg.updated_at), m.updated_at),
		COALESCE(MAX(g.updated_at), m.updated_at)
	) >= $2`

const movieOrder = `
	ORDER BY last_touched ASC, m.movie_id ASC
	LIMIT $1`

// GetUpdatedMovies extracts up to limit movies whose derived modification
// time is at or after since, oldest first. A nil since means extraction from
// the beginning.
func (d Datasource) GetUpdatedMovies(ctx context.Context, since *time.Time, limit int) ([]model.MovieRow, error) {
	query := movieSelect
	args := []interface{}{limit}
	if since != nil {
		query += movieSince
		args = append(args, *since)
	}
	query += movieOrder

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, etlerror.New(etlerror.ErrSourceQuery, "Failed to extract movies", err)
	}
	defer rows.Close()

	movies := []model.MovieRow{}

	for rows.Next() {
		movie := model.MovieRow{}
		var nameEng sql.NullString
		var personsJSON, genresJSON []byte
		err = rows.Scan(
			&movie.MovieID,
			&movie.NameRu,
			&nameEng,
			&movie.ReleaseDate,
			&movie.Rating,
			&movie.AgeRating,
			&movie.CreatedAt,
			&movie.UpdatedAt,
			&movie.LastTouched,
			&personsJSON,
			&genresJSON,
		)
		if err != nil {
			return nil, etlerror.New(etlerror.ErrSourceQuery, "Failed to scan movie row", err)
		}
		movie.NameEng = nameEng.String

		if err = json.Unmarshal(personsJSON, &movie.Persons); err != nil {
			return nil, etlerror.New(etlerror.ErrTransform, "Failed to unmarshal movie persons", err)
		}
		if err = json.Unmarshal(genresJSON, &movie.Genres); err != nil {
			return nil, etlerror.New(etlerror.ErrTransform, "Failed to unmarshal movie genres", err)
		}

		movies = append(movies, movie)
	}

	if err = rows.Err(); err != nil {
		return nil, etlerror.New(etlerror.ErrSourceQuery, "Error occurred while iterating over movies", err)
	}

	return movies, nil
}
