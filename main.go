package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/thedevbrian1/paragon-net/broadcast"
	"github.com/thedevbrian1/paragon-net/daraja"
	"github.com/thedevbrian1/paragon-net/handlers/auth"
	"github.com/thedevbrian1/paragon-net/handlers/courses"
	"github.com/thedevbrian1/paragon-net/handlers/enroll"
	"github.com/thedevbrian1/paragon-net/handlers/enrolments"
	"github.com/thedevbrian1/paragon-net/handlers/events"
	"github.com/thedevbrian1/paragon-net/handlers/payments"
	"github.com/thedevbrian1/paragon-net/migrations"
	"github.com/thedevbrian1/paragon-net/seed"
	"github.com/thedevbrian1/paragon-net/session"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file:", err)
	}
}

func main() {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://paragoneschool.com"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	utils.ConnectDatabase()

	migrations.MigrateTransactions()
	migrations.MigrateEnrolments()

	if err := seed.SeedDemoStudent(); err != nil {
		log.Fatalf("Failed to seed demo student: %v", err)
	}

	// The broadcaster connects the payment callback to the browsers waiting
	// on /events. With KAFKA_BROKERS set, events travel through Kafka so a
	// callback landing on one instance reaches clients connected to another.
	var hub broadcast.Broadcaster
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := os.Getenv("KAFKA_TRANSACTIONS_TOPIC")
		if topic == "" {
			topic = "transactions"
		}
		hub = broadcast.NewKafkaRelay(strings.Split(brokers, ","), topic)
	} else {
		hub = broadcast.NewHub()
	}
	defer hub.Close()

	gateway := daraja.NewClientFromEnv()
	store := session.NewStore(utils.DB)

	r.POST("/login", auth.Login)
	r.POST("/register", auth.Register)
	r.POST("/refresh-token", auth.RefreshToken)
	r.POST("/request-otp", auth.RequestOTP)
	r.POST("/verify-otp-reset", auth.VerifyOTPReset)
	r.POST("/reset-password", auth.ResetPassword)

	// Gateway callbacks arrive unauthenticated
	r.POST("/payment-callback", payments.MpesaCallback(hub))
	r.POST("/stripe/webhook", payments.HandleStripeWebhook)

	courses.RegisterCoursesRoutes(&r.RouterGroup)

	protected := r.Group("/")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/logout", auth.Logout)
		protected.GET("/events", events.Stream(hub))
		protected.POST("/create-payment-intent", payments.CreatePaymentIntent)
		enroll.RegisterEnrollRoutes(protected, store, gateway)
		enrolments.RegisterEnrolmentsRoutes(protected)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
