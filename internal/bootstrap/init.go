package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"NovaTalkAPI/internal/adapter"
	"NovaTalkAPI/internal/config"
	"NovaTalkAPI/internal/controller"
	"NovaTalkAPI/internal/guard"
	"NovaTalkAPI/internal/service"
	"NovaTalkAPI/internal/websocket"
)

// Init wires adapters, services, the hub and controllers, and starts
// the hub loop.
func Init(
	appConfig *config.AppConfig,
	db *gorm.DB,
	validate *validator.Validate,
	s3Client *s3.Client,
	redisAdapter *adapter.RedisAdapter,
	chiMux *chi.Mux,
) *websocket.Hub {
	storageAdapter := adapter.NewStorageAdapter(appConfig, s3Client)
	authGuard := guard.New(db)

	// The presence notifier and the hub reference each other; the hub
	// comes first and gets the notifier before it runs.
	hub := websocket.NewHub(nil)
	contactService := service.NewContactService(db, storageAdapter, hub)
	presenceService := service.NewPresenceService(db, redisAdapter, contactService)
	hub.SetPresence(presenceService)

	chatService := service.NewChatService(db, authGuard, storageAdapter, hub)
	groupService := service.NewGroupService(db, authGuard, storageAdapter, hub, chatService, contactService)
	messageService := service.NewMessageService(db, authGuard, storageAdapter, hub)
	friendService := service.NewFriendService(db, authGuard, storageAdapter, hub, contactService)
	profileService := service.NewProfileService(db, storageAdapter, hub, contactService)
	authService := service.NewAuthService(db, appConfig)

	rateLimiter := config.NewRateLimiter(appConfig)

	eventController := controller.NewEventController(
		hub, validate, authGuard,
		profileService, chatService, groupService,
		messageService, friendService, contactService,
	)
	eventController.RegisterHandlers()

	wsController := controller.NewWebSocketController(hub, rateLimiter)

	route := NewRoute(appConfig, chiMux, authService, wsController)
	route.Register()

	go hub.Run()

	return hub
}
