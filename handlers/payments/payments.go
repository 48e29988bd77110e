package payments

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
	"gorm.io/gorm"
)

// Card payments are the alternative to M-PESA for students paying from
// outside Kenya. A successful PaymentIntent is recorded as a transaction with
// the intent id standing in for the M-PESA receipt number.

type CreatePaymentIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	CourseID string `json:"course_id"`
}

func CreatePaymentIntent(c *gin.Context) {
	var req CreatePaymentIntentRequest

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Amount <= 0 || req.Currency == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount and currency are required"})
		return
	}

	student := c.MustGet("student").(models.Student)

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
	}

	if student.Email != "" {
		params.ReceiptEmail = stripe.String(student.Email)
	}

	params.Metadata = map[string]string{
		"student_id": strconv.FormatUint(uint64(student.ID), 10),
		"course_id":  req.CourseID,
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clientSecret": pi.ClientSecret,
	})
}

func HandleStripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Writer.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	endpointSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	event, err := webhook.ConstructEvent(payload, c.Request.Header.Get("Stripe-Signature"), endpointSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		c.Writer.WriteHeader(http.StatusBadRequest)
		return
	}

	if event.Type == "payment_intent.succeeded" {
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			log.Printf("Error parsing webhook JSON: %v", err)
			c.Writer.WriteHeader(http.StatusBadRequest)
			return
		}

		handleCardPaymentSuccess(paymentIntent)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func handleCardPaymentSuccess(paymentIntent stripe.PaymentIntent) {
	studentIDStr := paymentIntent.Metadata["student_id"]
	if studentIDStr == "" {
		log.Printf("PaymentIntent does not have student_id in metadata")
		return
	}

	studentID, err := strconv.ParseUint(studentIDStr, 10, 64)
	if err != nil {
		log.Printf("PaymentIntent has invalid student_id in metadata: %v", err)
		return
	}

	transaction := models.Transaction{
		MpesaReceiptNumber: paymentIntent.ID,
		Amount:             float64(paymentIntent.Amount) / 100,
		StudentID:          uint(studentID),
	}
	if err := utils.DB.Create(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Stripe redelivers webhooks; the transaction is already recorded.
			return
		}
		log.Printf("Failed to record card transaction: %v", err)
		return
	}

	log.Printf("Recorded card payment %s for student %d", paymentIntent.ID, studentID)
}
