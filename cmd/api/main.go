package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"reqwall/internal/adapter/api"
	"reqwall/internal/adapter/api/handler"
	apimiddleware "reqwall/internal/adapter/api/middleware"
	"reqwall/internal/adapter/api/router"
	"reqwall/internal/adapter/repository"
	"reqwall/internal/infrastructure/firebase"
	"reqwall/internal/infrastructure/websocket"
	"reqwall/internal/usecase"
	"reqwall/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	// Service account from env var (production) or file path (local dev);
	// with neither, application default credentials apply.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	requirementRepo := repository.NewFirestoreRequirementRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	participantRepo := repository.NewFirestoreParticipantRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	wsManager := websocket.NewManager()

	chatUseCase := usecase.NewChatUseCase(chatRepo, messageRepo, requirementRepo, participantRepo, wsManager, cfg.MessagePageSize, cfg.MessagePageMax)
	requirementUseCase := usecase.NewRequirementUseCase(requirementRepo, chatRepo, participantRepo)
	inboxUseCase := usecase.NewInboxUseCase(chatRepo, requirementRepo, participantRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient, participantRepo)

	requirementHandler := handler.NewRequirementHandler(requirementUseCase, chatUseCase)
	chatHandler := handler.NewChatHandler(chatUseCase)
	inboxHandler := handler.NewInboxHandler(inboxUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, chatUseCase, authMiddleware)
	healthHandler := handler.NewHealthHandler()

	router.Setup(e, requirementHandler, chatHandler, inboxHandler, wsHandler, healthHandler, authMiddleware)

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
