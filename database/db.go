package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/cinefeed/cinefeed/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createSchema(db)
	if err != nil {
		return nil, err
	}
	err = createMovieTables(db)
	if err != nil {
		return nil, err
	}
	err = createCheckpointTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS cinema`)
	return err
}

// createMovieTables creates the catalog tables when they do not exist yet.
// In production these tables are owned by the catalog admin service; the
// bootstrap here only covers local and test environments.
func createMovieTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cinema.movies (
			id SERIAL PRIMARY KEY,
			movie_id TEXT NOT NULL UNIQUE,
			name_ru TEXT NOT NULL UNIQUE,
			name_eng TEXT,
			release_date DATE NOT NULL,
			rating FLOAT NOT NULL DEFAULT 0.0,
			age_rating INT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cinema.persons (
			id SERIAL PRIMARY KEY,
			person_id TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			second_name TEXT,
			last_name TEXT NOT NULL,
			birthday DATE,
			place_of_birth TEXT,
			type_employment TEXT NOT NULL CHECK (type_employment IN ('actor', 'director', 'producer')),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cinema.genres (
			id SERIAL PRIMARY KEY,
			genre_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL UNIQUE,
			description TEXT,
			age_rating INT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cinema.movies_persons (
			id SERIAL PRIMARY KEY,
			movie_id TEXT NOT NULL REFERENCES cinema.movies(movie_id),
			person_id TEXT NOT NULL REFERENCES cinema.persons(person_id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (movie_id, person_id)
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cinema.movies_genres (
			id SERIAL PRIMARY KEY,
			movie_id TEXT NOT NULL REFERENCES cinema.movies(movie_id),
			genre_id TEXT NOT NULL REFERENCES cinema.genres(genre_id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (movie_id, genre_id)
		)
	`)
	return err
}

// createCheckpointTable creates the table holding the per-entity-type
// reference timestamps. Unlike the catalog tables this one is owned by the
// pipeline itself.
func createCheckpointTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cinema.etl_checkpoints (
			id SERIAL PRIMARY KEY,
			entity_type TEXT NOT NULL UNIQUE,
			reference_timestamp TIMESTAMP NOT NULL
		)
	`)
	return err
}
