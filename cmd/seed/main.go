// seed populates a fresh database with a default admin account, one staff
// user per role, and a starter inventory. Safe to re-run: existing rows are
// left alone via ON CONFLICT DO NOTHING.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"garage-backend/internal/core"
	"garage-backend/internal/db"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	name     string
	email    string
	phone    string
	username string
	role     core.Role
}

type seedItem struct {
	name     string
	category core.ItemCategory
	quantity int
	price    string
}

var users = []seedUser{
	{"System Admin", "admin@garage.local", "+15550100001", "system-admin", core.RoleAdmin},
	{"Miriam Okafor", "miriam@garage.local", "+15550100002", "miriam-okafor", core.RoleMechanic},
	{"Dawit Bekele", "dawit@garage.local", "+15550100003", "dawit-bekele", core.RoleStorekeeper},
	{"Sara Haile", "sara@garage.local", "+15550100004", "sara-haile", core.RoleCashier},
}

var items = []seedItem{
	{"Brake Pad Set", core.CategorySparePart, 40, "85.00"},
	{"Oil Filter", core.CategorySparePart, 120, "12.50"},
	{"Air Filter", core.CategorySparePart, 80, "18.00"},
	{"Spark Plug", core.CategorySparePart, 200, "7.25"},
	{"Timing Belt", core.CategorySparePart, 25, "64.00"},
	{"Alternator", core.CategorySparePart, 10, "210.00"},
	{"Torque Wrench", core.CategoryTools, 6, "95.00"},
	{"OBD-II Scanner", core.CategoryTools, 3, "340.00"},
	{"Hydraulic Jack", core.CategoryTools, 4, "150.00"},
	{"Engine Oil 5W-30 (1L)", core.CategoryMaterials, 300, "9.80"},
	{"Coolant (1L)", core.CategoryMaterials, 150, "6.40"},
	{"Brake Fluid DOT4 (500ml)", core.CategoryMaterials, 90, "8.10"},
}

func main() {
	_ = godotenv.Load()

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "ChangeMe1!"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash seed password: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("seeding users...")
	var adminID int
	for _, u := range users {
		var id int
		err := tx.QueryRow(ctx, `
			INSERT INTO users (name, email, phone_number, username, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
			RETURNING id`,
			u.name, u.email, u.phone, u.username, string(hash), u.role).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.email, err)
		}
		if u.role == core.RoleAdmin {
			adminID = id
		}
	}

	log.Println("seeding inventory...")
	for _, it := range items {
		price, err := decimal.NewFromString(it.price)
		if err != nil {
			log.Fatalf("bad seed price for %s: %v", it.name, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_items (item_name, item_type, quantity, unit_price, created_by)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (item_name) DO NOTHING`,
			it.name, it.category, it.quantity, price, adminID)
		if err != nil {
			log.Fatalf("failed to seed item %s: %v", it.name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("failed to commit seed: %v", err)
	}
	log.Printf("seed complete: %d users, %d inventory items", len(users), len(items))
}
