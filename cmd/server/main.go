package main

import (
	"context"
	"log"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/campuslink-app/backend/internal/realtime"
	"github.com/campuslink-app/backend/internal/router"
	"github.com/campuslink-app/backend/pkg/config"
	"github.com/campuslink-app/backend/pkg/firebase"
	"github.com/campuslink-app/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase. Campus Google sign-in is optional; without
	// credentials the /firebase-login route rejects requests and the rest of
	// the API works normally.
	ctx := context.Background()
	var firebaseAuthClient *firebaseauth.Client
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Firebase not initialized, campus Google sign-in disabled: %v", err)
	} else {
		firebaseAuthClient = firebaseApp.AuthClient
	}

	// Realtime hub
	hub := realtime.NewHub()
	go hub.Run()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Validator
	e.Validator = validators.NewValidator()

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db, hub, firebaseAuthClient)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
