package main

import (
	"context"
	"net/http"
	"os"

	webAdapter "garage-backend/internal/adapters/web"
	"garage-backend/internal/app"
	"garage-backend/internal/core"
	"garage-backend/internal/db"
	"garage-backend/internal/mail"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	mailer := mail.FromEnv(log)

	userService := core.NewUserService(pool, mailer, log)
	vehicleService := core.NewVehicleService(pool)
	inventoryService := core.NewInventoryService(pool)
	solutionService := core.NewSolutionService(pool, inventoryService)
	quotationService := core.NewQuotationService(pool)

	svc := app.NewAppService(userService, vehicleService, inventoryService, solutionService, quotationService)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret, log)

	log.Infof("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
