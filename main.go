package main

import (
	"log"
	"time"

	"talenthub/internal"
	"talenthub/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := internal.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db := internal.MustDB(cfg.DatabaseURL)
	defer db.Close()

	var limiter ratelimit.Limiter = ratelimit.NewMemory(time.Minute)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal(err)
		}
		limiter = ratelimit.NewRedis(redis.NewClient(opts), time.Minute)
	}

	r := gin.Default()

	api := r.Group("/api")
	{
		authLimit := internal.RateLimit(limiter, 10)
		api.POST("/auth/register", authLimit, internal.Register(db))
		api.POST("/auth/login", authLimit, internal.Login(db, cfg.JWTSecret, cfg.CookieSecure))
		api.POST("/auth/logout", internal.Logout())

		api.POST("/webhooks/payments", internal.PaymentWebhook(db, cfg.WebhookSecret, internal.NopNotifier{}))

		auth := internal.Auth(cfg.JWTSecret)

		member := api.Group("", auth, internal.RequireClass(internal.ClassMember))
		{
			member.GET("/me", internal.Me(db))
			member.GET("/me/profile", internal.MyProfile(db))
			member.PUT("/me/profile", internal.UpdateMyProfile(db))

			member.GET("/listings", internal.ListListings(db))
			member.GET("/listings/:id", internal.GetListing(db))

			member.POST("/messages", internal.SendMessage(db))
			member.GET("/messages", internal.ListMessages(db))
		}

		athlete := api.Group("", auth, internal.RequireClass(internal.ClassAthlete))
		{
			athlete.POST("/listings/:id/apply", internal.ApplyToListing(db))
			athlete.GET("/my/applications", internal.MyApplications(db))
			athlete.POST("/applications/:id/withdraw", internal.WithdrawApplication(db))
		}

		client := api.Group("", auth, internal.RequireClass(internal.ClassClient))
		{
			client.POST("/listings", internal.CreateListing(db))
			client.PUT("/listings/:id", internal.UpdateListing(db))
			client.POST("/listings/:id/submit", internal.SubmitListing(db))
			client.DELETE("/listings/:id", internal.DeleteListing(db))
			client.GET("/my/listings", internal.MyListings(db))
			client.GET("/listings/:id/applications", internal.ListingApplications(db))
			client.POST("/applications/:id/status", internal.UpdateApplicationStatus(db))
		}

		admin := api.Group("/admin", auth, internal.RequireClass(internal.ClassAdmin))
		{
			admin.GET("/users", internal.AdminUsers(db))
			admin.PUT("/users/:id", internal.AdminUpdateUser(db))
			admin.DELETE("/users/:id", internal.AdminDeleteUser(db))
			admin.POST("/users/bulk-delete", internal.AdminBulkDeleteUsers(db))
			admin.GET("/users/export", internal.AdminExportUsers(db))

			admin.GET("/listings", internal.AdminListListings(db))
			admin.POST("/listings/:id/approve", internal.AdminApproveListing(db))
			admin.POST("/listings/:id/close", internal.AdminCloseListing(db))
			admin.DELETE("/listings/:id", internal.AdminDeleteListing(db))
			admin.POST("/listings/bulk-delete", internal.AdminBulkDeleteListings(db))
			admin.GET("/listings/export", internal.AdminExportListings(db))

			admin.GET("/applications", internal.AdminListApplications(db))
			admin.GET("/donations", internal.AdminDonations(db))
			admin.GET("/audit", internal.AdminAudit(db))
		}

		sensitive := api.Group("/admin", auth, internal.RequireClass(internal.ClassAdminSensitive))
		{
			sensitive.POST("/users/:id/role", internal.AdminSetRole(db))
		}
	}

	log.Printf("Listening on :%s", cfg.Port)
	_ = r.Run(":" + cfg.Port)
}
