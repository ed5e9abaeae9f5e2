package main

import (
	"net/http"
	"strings"

	"go-social/config"
	"go-social/handlers"
	"go-social/middleware"
	"go-social/models"
	"go-social/services"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

type app struct {
	users          *services.UserService
	sessions       *services.SessionService
	posts          *services.PostService
	friends        *services.FriendService
	verifications  *services.VerificationService
	participations *services.ParticipationService
	endorsements   *services.EndorsementService
	locations      *services.LocationService
}

func newApp(cfg *config.Config, db *mongo.Database, redisClient *redis.Client, logger logrus.FieldLogger) *app {
	return &app{
		users:          services.NewUserService(db, redisClient, cfg.AdminUsernames, logger),
		sessions:       services.NewSessionService(redisClient, cfg.JWTSecret, cfg.SessionTTL),
		posts:          services.NewPostService(db, logger),
		friends:        services.NewFriendService(db, logger),
		verifications:  services.NewVerificationService(db, logger),
		participations: services.NewParticipationService(db, logger),
		endorsements:   services.NewEndorsementService(db, logger),
		locations:      services.NewLocationService(db, redisClient, logger),
	}
}

func (a *app) indexed() []services.IndexedService {
	return []services.IndexedService{
		a.users, a.posts, a.friends, a.verifications,
		a.participations, a.endorsements, a.locations,
	}
}

func newRouter(cfg *config.Config, a *app, mongoClient *mongo.Client, redisClient *redis.Client, logger logrus.FieldLogger) http.Handler {
	authHandler := handlers.NewAuthHandler(a.users, a.sessions, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(a.users, authHandler)
	postHandler := handlers.NewPostHandler(a.posts, a.users, a.verifications)
	friendHandler := handlers.NewFriendHandler(a.friends, a.users)
	verificationHandler := handlers.NewVerificationHandler(a.verifications, a.users)
	eventHandler := handlers.NewEventHandler(a.participations, a.posts, a.users)
	endorsementHandler := handlers.NewEndorsementHandler(a.endorsements, a.users)
	locationHandler := handlers.NewLocationHandler(a.locations, a.users)
	streamHandler := handlers.NewLocationStreamHandler(a.locations, a.users, originHosts(cfg.AllowedOrigins), logger)
	healthHandler := handlers.NewHealthHandler(mongoClient, redisClient)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)
	session := middleware.RequireSession
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireRole(a.users, models.RoleAdmin, next)
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.SessionMiddleware(a.sessions))

	api.HandleFunc("/health", healthHandler.Health).Methods("GET")

	// Auth routes
	api.HandleFunc("/session", session(authHandler.GetSessionUser)).Methods("GET")
	api.HandleFunc("/login", loginLimiter.Limit(middleware.RequireLoggedOut(authHandler.LoginUser))).Methods("POST")
	api.HandleFunc("/logout", session(authHandler.LogoutUser)).Methods("POST")

	// User routes
	api.HandleFunc("/users", userHandler.GetUsers).Methods("GET")
	api.HandleFunc("/users", middleware.RequireLoggedOut(userHandler.CreateUser)).Methods("POST")
	api.HandleFunc("/users", session(userHandler.DeleteUser)).Methods("DELETE")
	api.HandleFunc("/users/username", session(userHandler.UpdateUsername)).Methods("PATCH")
	api.HandleFunc("/users/password", session(userHandler.UpdatePassword)).Methods("PATCH")
	api.HandleFunc("/users/{username}", userHandler.GetUser).Methods("GET")

	// Post routes
	api.HandleFunc("/posts", postHandler.GetPosts).Methods("GET")
	api.HandleFunc("/posts", session(postHandler.CreatePost)).Methods("POST")
	api.HandleFunc("/posts/{id}", session(postHandler.UpdatePost)).Methods("PATCH")
	api.HandleFunc("/posts/{id}", session(postHandler.DeletePost)).Methods("DELETE")

	// Friend routes
	api.HandleFunc("/friends", session(friendHandler.GetFriends)).Methods("GET")
	api.HandleFunc("/friends/{friend}", session(friendHandler.RemoveFriend)).Methods("DELETE")
	api.HandleFunc("/friend/requests", session(friendHandler.GetRequests)).Methods("GET")
	api.HandleFunc("/friend/requests/{to}", session(friendHandler.SendRequest)).Methods("POST")
	api.HandleFunc("/friend/requests/{to}", session(friendHandler.RemoveRequest)).Methods("DELETE")
	api.HandleFunc("/friend/accept/{from}", session(friendHandler.AcceptRequest)).Methods("PUT")
	api.HandleFunc("/friend/reject/{from}", session(friendHandler.RejectRequest)).Methods("PUT")

	// Verification routes
	api.HandleFunc("/verifications", session(verificationHandler.SubmitVerification)).Methods("POST")
	api.HandleFunc("/verifications/status", session(verificationHandler.GetStatus)).Methods("GET")
	api.HandleFunc("/verifications/pending", admin(verificationHandler.ListPending)).Methods("GET")
	api.HandleFunc("/verifications/{userID}/approve", admin(verificationHandler.Approve)).Methods("PUT")
	api.HandleFunc("/verifications/{userID}/reject", admin(verificationHandler.Reject)).Methods("PUT")

	// Event routes
	api.HandleFunc("/events/{id}/join", session(eventHandler.JoinEvent)).Methods("POST")
	api.HandleFunc("/events/{id}/join", session(eventHandler.LeaveEvent)).Methods("DELETE")
	api.HandleFunc("/events/{id}/participants", eventHandler.GetParticipants).Methods("GET")
	api.HandleFunc("/users/{username}/events", eventHandler.GetUserEvents).Methods("GET")

	// Endorsement routes
	api.HandleFunc("/users/{username}/endorsements", session(endorsementHandler.Endorse)).Methods("POST")
	api.HandleFunc("/users/{username}/endorsements", session(endorsementHandler.RemoveEndorsement)).Methods("DELETE")
	api.HandleFunc("/users/{username}/endorsements", endorsementHandler.GetEndorsements).Methods("GET")

	// Location routes
	api.HandleFunc("/users/{username}/location", session(locationHandler.GetUserLocation)).Methods("GET")
	api.HandleFunc("/location/share", session(locationHandler.ShareLocation)).Methods("POST")
	api.HandleFunc("/location/share", session(locationHandler.StopSharing)).Methods("DELETE")
	api.HandleFunc("/location/enable", session(locationHandler.EnableSharing)).Methods("POST")
	api.HandleFunc("/location/disable", session(locationHandler.DisableSharing)).Methods("POST")
	api.HandleFunc("/location/sharing-status", session(locationHandler.GetSharingStatus)).Methods("GET")
	api.HandleFunc("/location/trusted-contacts", session(locationHandler.GetTrustedContacts)).Methods("GET")
	api.HandleFunc("/location/trusted-contacts", session(locationHandler.AddTrustedContact)).Methods("POST")
	api.HandleFunc("/location/trusted-contacts/locations", session(locationHandler.GetTrustedContactsLocations)).Methods("GET")
	api.HandleFunc("/location/shared-with-me", session(locationHandler.GetSharedWithMe)).Methods("GET")
	api.HandleFunc("/location/trusted-contacts/{contactUsername}", session(locationHandler.RemoveTrustedContact)).Methods("DELETE")
	api.HandleFunc("/location/nearby", session(locationHandler.GetNearbyContacts)).Methods("GET")
	api.HandleFunc("/location/stream", session(streamHandler.Stream)).Methods("GET")

	var handler http.Handler = r
	handler = middleware.CORSMiddleware(cfg.AllowedOrigins)(handler)
	handler = middleware.LogMiddleware(logger)(handler)
	handler = middleware.ErrorMiddleware()(handler)
	return handler
}

// originHosts turns allowed origins into websocket origin patterns, which
// match on host only.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimPrefix(origin, "https://")
		origin = strings.TrimPrefix(origin, "http://")
		hosts = append(hosts, origin)
	}
	return hosts
}
