// Package enroll drives the two-step enrollment wizard: pay by M-PESA, then
// enroll. Step 1 fires an STK push and parks the session until the gateway's
// callback is pushed back to the browser over SSE; the browser then submits
// recordTransaction automatically, and the wizard only accepts it when the
// event's payer matches the charge this session initiated.
package enroll

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/thedevbrian1/paragon-net/daraja"
	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/session"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	stepPayment = 1
	stepEnroll  = 2
)

var stepNames = []string{"Payment", "Enroll"}

func RegisterEnrollRoutes(r *gin.RouterGroup, store *session.Store, gateway *daraja.Client) {
	r.GET("/enroll", ShowStep(store))
	r.POST("/enroll", SubmitStep(store, gateway))
}

// courseFee is the amount charged per course, in whole shillings.
func courseFee() int {
	if fee, err := strconv.Atoi(os.Getenv("COURSE_FEE")); err == nil && fee > 0 {
		return fee
	}
	return 1
}

// ShowStep rehydrates the wizard for the requested page. The wizard is
// stateless across requests except for the session store.
func ShowStep(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("id") == "" || c.Query("title") == "" {
			c.Redirect(http.StatusFound, "/courses")
			return
		}

		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < stepPayment || page > stepEnroll {
			page = stepPayment
		}

		sess, err := store.Get(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}

		var data gin.H
		if page == stepPayment && sess.Data.Payment != nil {
			data = gin.H{"mpesa": sess.Data.Payment.Phone}
		}

		message := sess.PopFlash()
		if err := store.Save(sess); err != nil {
			log.Printf("Failed to save session: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"page":    page,
			"steps":   stepNames,
			"data":    data,
			"message": message,
		})
	}
}

// SubmitStep advances the wizard. The _action form field selects the
// transition; anything that does not match a known transition for the page is
// a bad request.
func SubmitStep(store *session.Store, gateway *daraja.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil {
			page = stepPayment
		}

		sess, err := store.Get(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}

		action := c.PostForm("_action")

		switch page {
		case stepPayment:
			switch action {
			case "recordTransaction":
				recordTransaction(c, store, sess)
			case "next":
				submitPhone(c, store, sess, gateway)
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
			}
		case stepEnroll:
			if action != "enroll" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
				return
			}
			confirmEnrollment(c, store, sess)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown wizard step"})
		}
	}
}

// submitPhone validates the payer's number and dispatches the STK push. On
// success the wizard stays on the payment step: the outcome arrives later via
// the gateway callback and the SSE stream.
func submitPhone(c *gin.Context, store *session.Store, sess *session.Session, gateway *daraja.Client) {
	phone := utils.TrimPhone(c.PostForm("mpesa"))

	if msg := utils.ValidatePhone(phone); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"fieldErrors": gin.H{"mpesa": msg}})
		return
	}

	amount := courseFee()

	// AccountReference ties the charge back to this wizard session.
	ack, err := gateway.InitiateSTKPush(phone, amount, sess.Token)
	if err != nil {
		log.Printf("STK push failed: %v", err)
		// Not retried automatically: the customer may already have a PIN
		// prompt on their phone, and a silent retry could double-charge.
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not reach M-PESA. Please try again."})
		return
	}

	normalized := daraja.NormalizePhone(phone)

	// A new submission overwrites any previous pending charge.
	sess.Data.Payment = &session.PaymentStep{
		Phone:             normalized,
		CheckoutRequestID: ack.CheckoutRequestID,
		InitiatedAt:       time.Now(),
	}
	sess.CurrentStep = stepPayment
	sess.SetFlash("Request initiated. Check your phone to complete the request")

	if err := store.Save(sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	payment := models.MpesaPayment{
		CheckoutRequestID: ack.CheckoutRequestID,
		MerchantRequestID: ack.MerchantRequestID,
		SessionToken:      sess.Token,
		PhoneNumber:       normalized,
		Amount:            float64(amount),
		Status:            "Pending",
	}
	if err := utils.DB.Create(&payment).Error; err != nil {
		log.Printf("Failed to record M-PESA payment request: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// recordTransaction is submitted by the browser when the SSE stream delivers a
// transaction event, not by the user. The event is only recorded when the
// payer's number matches the pending charge stored for this session; anything
// else belongs to another payer and resolves as a silent no-op.
func recordTransaction(c *gin.Context, store *session.Store, sess *session.Session) {
	mpesaCode := c.PostForm("mpesaCode")
	transactionPhone := c.PostForm("transactionPhone")
	checkoutRequestID := c.PostForm("checkoutRequestId")

	pending := sess.Data.Payment

	if mpesaCode == "" || pending == nil || transactionPhone != pending.Phone {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	// When both sides carry the checkout request id, require it to match as
	// well: two sessions can legitimately pay from the same number.
	if pending.CheckoutRequestID != "" && checkoutRequestID != "" && checkoutRequestID != pending.CheckoutRequestID {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	student := c.MustGet("student").(models.Student)

	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		amount = 0
	}

	transaction := models.Transaction{
		MpesaReceiptNumber: mpesaCode,
		Amount:             amount,
		StudentID:          student.ID,
	}
	if err := utils.DB.Create(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The gateway delivered the same receipt twice; the first
			// insert already advanced a wizard somewhere.
			c.JSON(http.StatusConflict, gin.H{"error": "Transaction already recorded"})
			return
		}
		log.Printf("Failed to record transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record transaction"})
		return
	}

	sess.Data.MpesaCode = mpesaCode
	sess.CurrentStep = stepEnroll
	sess.SetFlash("Transaction was successful")

	if err := store.Save(sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	c.Redirect(http.StatusSeeOther, wizardURL(c, stepEnroll))
}

// confirmEnrollment is the terminal transition: the course must exist in the
// catalog and a recorded transaction must back this session.
func confirmEnrollment(c *gin.Context, store *session.Store, sess *session.Session) {
	courseID := c.Query("id")

	courseIDs, err := utils.GetCourseIDs()
	if err != nil {
		log.Printf("Failed to fetch course ids: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not reach the course catalog. Please try again."})
		return
	}

	valid := false
	for _, id := range courseIDs {
		if id == courseID {
			valid = true
			break
		}
	}
	if !valid {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	mpesaCode := sess.Data.MpesaCode
	if mpesaCode == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found!"})
		return
	}

	var transaction models.Transaction
	if err := utils.DB.Where("mpesa_receipt_number = ?", mpesaCode).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found!"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up transaction"})
		return
	}

	student := c.MustGet("student").(models.Student)

	enrolment := models.Enrolment{
		StudentID: student.ID,
		CourseID:  courseID,
	}
	if err := utils.DB.Create(&enrolment).Error; err != nil {
		log.Printf("Failed to create enrolment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll"})
		return
	}

	// Consume the committed step data so a replayed confirm cannot enroll
	// twice off the same transaction.
	sess.Data.Payment = nil
	sess.Data.MpesaCode = ""
	sess.CurrentStep = stepPayment
	sess.SetFlash("Enrolled successfully!")

	if err := store.Save(sess); err != nil {
		log.Printf("Failed to save session: %v", err)
	}

	c.Redirect(http.StatusSeeOther, "/schedule")
}

// wizardURL rebuilds the current wizard URL pointing at the given page,
// keeping the course id and title query params.
func wizardURL(c *gin.Context, page int) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	if id := c.Query("id"); id != "" {
		params.Set("id", id)
	}
	if title := c.Query("title"); title != "" {
		params.Set("title", title)
	}
	return "/enroll?" + params.Encode()
}
