package database

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/cinefeed/cinefeed/internal/etlerror"
	"github.com/cinefeed/cinefeed/model"
	"github.com/stretchr/testify/assert"
)

func movieColumns() []string {
	return []string{
		"movie_id", "name_ru", "name_eng", "release_date", "rating", "age_rating",
		"created_at", "updated_at", "last_touched", "persons", "genres",
	}
}

func TestGetUpdatedMovies_FromTheBeginning(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	persons := []model.PersonRecord{
		{PersonID: "prs_1", FirstName: "Keanu", LastName: "Reeves", Role: model.RoleActor},
	}
	genres := []model.GenreRecord{
		{GenreID: "gnr_1", Title: "sci-fi", AgeRating: 16},
	}
	personsJSON, err := json.Marshal(persons)
	assert.NoError(t, err)
	genresJSON, err := json.Marshal(genres)
	assert.NoError(t, err)

	released := time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	touched := updated.Add(time.Hour)

	rows := sqlmock.NewRows(movieColumns()).
		AddRow("mov_1", "Матрица", "The Matrix", released, 8.7, 16, updated.Add(-time.Hour), updated, touched, personsJSON, genresJSON)

	mock.ExpectQuery("SELECT m.movie_id, m.name_ru, m.name_eng").
		WithArgs(500).
		WillReturnRows(rows)

	movies, err := ds.GetUpdatedMovies(context.Background(), nil, 500)
	assert.NoError(t, err)
	assert.Len(t, movies, 1)
	assert.Equal(t, "mov_1", movies[0].MovieID)
	assert.Equal(t, "The Matrix", movies[0].NameEng)
	assert.True(t, movies[0].LastTouched.Equal(touched))
	assert.Equal(t, persons, movies[0].Persons)
	assert.Equal(t, genres, movies[0].Genres)
}

func TestGetUpdatedMovies_SinceWindowIsPassedThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	since := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT m.movie_id, m.name_ru, m.name_eng").
		WithArgs(100, since).
		WillReturnRows(sqlmock.NewRows(movieColumns()))

	movies, err := ds.GetUpdatedMovies(context.Background(), &since, 100)
	assert.NoError(t, err)
	assert.Empty(t, movies)
}

func TestGetUpdatedMovies_NullableNameEng(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	now := time.Now()
	rows := sqlmock.NewRows(movieColumns()).
		AddRow("mov_2", "Ирония судьбы", nil, now, 8.1, 12, now, now, now, []byte("[]"), []byte("[]"))

	mock.ExpectQuery("SELECT m.movie_id, m.name_ru, m.name_eng").
		WithArgs(10).
		WillReturnRows(rows)

	movies, err := ds.GetUpdatedMovies(context.Background(), nil, 10)
	assert.NoError(t, err)
	assert.Len(t, movies, 1)
	assert.Equal(t, "", movies[0].NameEng)
	assert.Empty(t, movies[0].Persons)
	assert.Empty(t, movies[0].Genres)
}

func TestGetUpdatedMovies_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT m.movie_id, m.name_ru, m.name_eng").
		WithArgs(500).
		WillReturnError(errors.New("relation does not exist"))

	_, err = ds.GetUpdatedMovies(context.Background(), nil, 500)
	assert.Error(t, err)
	etlErr, ok := err.(etlerror.ETLError)
	assert.True(t, ok)
	assert.Equal(t, etlerror.ErrSourceQuery, etlErr.Code)
}

func TestGetUpdatedMovies_MalformedRelationJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	now := time.Now()
	rows := sqlmock.NewRows(movieColumns()).
		AddRow("mov_3", "Сталкер", "Stalker", now, 8.2, 12, now, now, now, []byte("{broken"), []byte("[]"))

	mock.ExpectQuery("SELECT m.movie_id, m.name_ru, m.name_eng").
		WithArgs(10).
		WillReturnRows(rows)

	_, err = ds.GetUpdatedMovies(context.Background(), nil, 10)
	assert.Error(t, err)
	etlErr, ok := err.(etlerror.ETLError)
	assert.True(t, ok)
	assert.Equal(t, etlerror.ErrTransform, etlErr.Code)
}
