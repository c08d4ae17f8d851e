package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		chat_id TEXT NOT NULL UNIQUE,
		balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		car_number TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS parking_spots (
		id SERIAL PRIMARY KEY,
		location TEXT NOT NULL UNIQUE,
		price_per_hour INTEGER NOT NULL CHECK (price_per_hour >= 0),
		available BOOLEAN NOT NULL DEFAULT TRUE,
		free_spaces INTEGER NOT NULL DEFAULT 0 CHECK (free_spaces >= 0),
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS parking_sessions (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		spot_id INTEGER NOT NULL REFERENCES parking_spots(id),
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_parking_sessions_end_time ON parking_sessions (end_time)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	)`,
}

func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}
	log.Println("Schema is up to date")
}
