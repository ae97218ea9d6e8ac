/*
Copyright 2024 Cinefeed Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import "time"

// EntityTypeMovies names the movies pipeline. It is the queue key, the
// checkpoint key and the search collection name.
const EntityTypeMovies = "movies"

// Person roles as stored in cinema.persons.type_employment.
const (
	RoleActor    = "actor"
	RoleDirector = "director"
	RoleProducer = "producer"
)

// DateLayout is the wire format for date-only fields (release dates,
// birthdays) in published documents.
const DateLayout = "2006-01-02"

// PersonRecord is a contributor row joined to a movie. It is both the shape
// returned by the extraction query's JSON aggregation and the sub-document
// published to the search index.
type PersonRecord struct {
	PersonID     string `json:"person_id"`
	FirstName    string `json:"first_name"`
	SecondName   string `json:"second_name,omitempty"`
	LastName     string `json:"last_name"`
	Birthday     string `json:"birthday,omitempty"`
	PlaceOfBirth string `json:"place_of_birth,omitempty"`
	Role         string `json:"role"`
}

// DisplayName returns the name used for the flattened role buckets.
func (p PersonRecord) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// GenreRecord is a category row joined to a movie.
type GenreRecord struct {
	GenreID     string `json:"genre_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AgeRating   int    `json:"age_rating"`
}

// MovieRow is one primary row of an extraction batch: the movie columns plus
// its preloaded related rows. LastTouched is the modification high-water mark
// across the movie and all of its relations; it drives batch ordering and
// checkpoint advancement.
type MovieRow struct {
	MovieID     string
	NameRu      string
	NameEng     string
	ReleaseDate time.Time
	Rating      float64
	AgeRating   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastTouched time.Time
	Persons     []PersonRecord
	Genres      []GenreRecord
}

// MovieDocument is the denormalized, sink-ready representation of a movie.
// It is immutable once constructed; ownership passes from producer to loader
// through the stage queue.
type MovieDocument struct {
	MovieID       string         `json:"movie_id"`
	NameRu        string         `json:"name_ru"`
	NameEng       string         `json:"name_eng,omitempty"`
	ReleaseDate   string         `json:"release_date"`
	Rating        float64        `json:"rating"`
	AgeRating     int            `json:"age_rating"`
	ActorsName    []string       `json:"actors_name"`
	DirectorsName []string       `json:"directors_name"`
	ProducersName []string       `json:"producers_name"`
	Persons       []PersonRecord `json:"persons"`
	GenresTitle   []string       `json:"genres_title"`
	Genres        []GenreRecord  `json:"genres"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewMovieDocument flattens an extraction row into its published form. Person
// names are bucketed by role; persons with an unknown role are kept in the
// sub-document list but not bucketed.
func NewMovieDocument(row MovieRow) *MovieDocument {
	doc := &MovieDocument{
		MovieID:       row.MovieID,
		NameRu:        row.NameRu,
		NameEng:       row.NameEng,
		ReleaseDate:   row.ReleaseDate.Format(DateLayout),
		Rating:        row.Rating,
		AgeRating:     row.AgeRating,
		ActorsName:    []string{},
		DirectorsName: []string{},
		ProducersName: []string{},
		Persons:       row.Persons,
		GenresTitle:   []string{},
		Genres:        row.Genres,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.LastTouched,
	}
	if doc.Persons == nil {
		doc.Persons = []PersonRecord{}
	}
	if doc.Genres == nil {
		doc.Genres = []GenreRecord{}
	}

	for _, person := range row.Persons {
		switch person.Role {
		case RoleActor:
			doc.ActorsName = append(doc.ActorsName, person.DisplayName())
		case RoleDirector:
			doc.DirectorsName = append(doc.DirectorsName, person.DisplayName())
		case RoleProducer:
			doc.ProducersName = append(doc.ProducersName, person.DisplayName())
		}
	}
	for _, genre := range row.Genres {
		doc.GenresTitle = append(doc.GenresTitle, genre.Title)
	}

	return doc
}

// DocumentID returns the stable id used for idempotent upserts.
func (m *MovieDocument) DocumentID() string {
	return m.MovieID
}

// ModifiedAt returns the source modification time used for checkpoint
// advancement.
func (m *MovieDocument) ModifiedAt() time.Time {
	return m.UpdatedAt
}
