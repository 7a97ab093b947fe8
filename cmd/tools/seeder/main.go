package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	provider TEXT NOT NULL,
	monthly_price BIGINT NOT NULL CHECK (monthly_price >= 0),
	earnings BIGINT NOT NULL CHECK (earnings >= 0),
	intro_monthly_price BIGINT,
	intro_months INT,
	family_discount_eligible BOOLEAN NOT NULL DEFAULT FALSE,
	bundled_streaming_ids TEXT[],
	streaming_slot_capacity INT,
	variable_bundle_pricing JSONB
);

CREATE TABLE IF NOT EXISTS streaming_services (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	monthly_price BIGINT NOT NULL CHECK (monthly_price >= 0)
);
`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	seedStreamingServices(db)
	seedPlans(db)

	log.Println("Seeding completed successfully!")
}

func seedStreamingServices(db *sql.DB) {
	services := []struct {
		id    string
		name  string
		price int64
	}{
		{"netflix", "Netflix Standard", 114},
		{"hbo-max", "HBO Max", 99},
		{"disney-plus", "Disney+", 79},
		{"viaplay", "Viaplay Film & Serier", 129},
		{"tv2-play", "TV 2 Play", 99},
		{"skyshowtime", "SkyShowtime", 69},
	}
	for _, s := range services {
		_, err := db.Exec(`
			INSERT INTO streaming_services (id, name, monthly_price)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, monthly_price = EXCLUDED.monthly_price
		`, s.id, s.name, s.price)
		if err != nil {
			log.Fatalf("Failed to seed streaming service %s: %v", s.id, err)
		}
	}
	log.Printf("Seeded %d streaming services", len(services))
}

func seedPlans(db *sql.DB) {
	type plan struct {
		id         string
		name       string
		provider   string
		price      int64
		earnings   int64
		introPrice *int64
		introMos   *int
		family     bool
		bundled    any
		capacity   *int
		variable   any
	}

	intro := func(v int64) *int64 { return &v }
	months := func(v int) *int { return &v }
	slots := func(v int) *int { return &v }

	plans := []plan{
		{id: "telmore-basic", name: "Telmore Basic 20GB", provider: "telmore",
			price: 129, earnings: 450, family: true},
		{id: "telmore-intro", name: "Telmore Start 10GB", provider: "telmore",
			price: 149, earnings: 500, introPrice: intro(74), introMos: months(3), family: true},
		{id: "telmore-play", name: "Telmore Play 50GB", provider: "telmore",
			price: 299, earnings: 750, family: true,
			variable: `{"2": 299, "3": 349, "4": 399, "5": 449, "6": 499, "7": 549, "8": 599}`},
		{id: "cbb-mini", name: "CBB Mobil 15GB", provider: "cbb",
			price: 99, earnings: 350},
		{id: "cbb-max", name: "CBB Mobil 100GB", provider: "cbb",
			price: 149, earnings: 550},
		{id: "telenor-fri", name: "Telenor Fri Data", provider: "telenor",
			price: 249, earnings: 700, family: true},
		{id: "yousee-play-2", name: "YouSee Mobil + Play 2", provider: "yousee",
			price: 279, earnings: 800, family: true, capacity: slots(2)},
		{id: "yousee-fixed", name: "YouSee Mobil + Streaming", provider: "yousee",
			price: 329, earnings: 850, family: true,
			bundled: "{netflix,hbo-max}"},
		{id: "callme-limit", name: "Call me Limitless", provider: "callme",
			price: 119, earnings: 400},
	}

	for _, p := range plans {
		_, err := db.Exec(`
			INSERT INTO plans (
				id, name, provider, monthly_price, earnings,
				intro_monthly_price, intro_months, family_discount_eligible,
				bundled_streaming_ids, streaming_slot_capacity, variable_bundle_pricing
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				provider = EXCLUDED.provider,
				monthly_price = EXCLUDED.monthly_price,
				earnings = EXCLUDED.earnings,
				intro_monthly_price = EXCLUDED.intro_monthly_price,
				intro_months = EXCLUDED.intro_months,
				family_discount_eligible = EXCLUDED.family_discount_eligible,
				bundled_streaming_ids = EXCLUDED.bundled_streaming_ids,
				streaming_slot_capacity = EXCLUDED.streaming_slot_capacity,
				variable_bundle_pricing = EXCLUDED.variable_bundle_pricing
		`, p.id, p.name, p.provider, p.price, p.earnings,
			p.introPrice, p.introMos, p.family,
			p.bundled, p.capacity, p.variable)
		if err != nil {
			log.Fatalf("Failed to seed plan %s: %v", p.id, err)
		}
	}
	log.Printf("Seeded %d plans", len(plans))
}
