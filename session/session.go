// Package session is the enrollment wizard's server-side session store. Each
// browser gets an opaque cookie token pointing at a WizardSession row; the row
// carries the typed per-step payloads the wizard needs to survive across
// requests, including the pending M-PESA charge used to correlate gateway
// callbacks.
package session

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/thedevbrian1/paragon-net/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CookieName   = "paragon_session"
	cookieMaxAge = 7 * 24 * 60 * 60 // seconds
)

// PaymentStep is the step-1 payload: the pending charge. The phone number is
// stored in the gateway's international format so it compares equal to the
// PhoneNumber the callback reports.
type PaymentStep struct {
	Phone             string    `json:"phone"`
	CheckoutRequestID string    `json:"checkout_request_id,omitempty"`
	InitiatedAt       time.Time `json:"initiated_at"`
}

// Data is everything a wizard session persists between requests. A new step-1
// submission overwrites Payment wholesale; there is at most one pending
// charge per session.
type Data struct {
	Payment   *PaymentStep `json:"payment,omitempty"`
	MpesaCode string       `json:"mpesa_code,omitempty"`
	Flash     string       `json:"flash,omitempty"`
}

type Session struct {
	Token       string
	CurrentStep int
	Data        Data

	record *models.WizardSession
}

// SetFlash stores a one-shot message for the next page load.
func (s *Session) SetFlash(message string) {
	s.Data.Flash = message
}

// PopFlash returns the pending message and clears it.
func (s *Session) PopFlash() string {
	flash := s.Data.Flash
	s.Data.Flash = ""
	return flash
}

// Store loads and saves wizard sessions. Scoping is strictly per cookie: a
// session can never read another session's rows.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get returns the session for the request's cookie, creating a fresh one (and
// setting the cookie) when there is none or the token is unknown.
func (st *Store) Get(c *gin.Context) (*Session, error) {
	token, err := c.Cookie(CookieName)
	if err == nil && token != "" {
		var record models.WizardSession
		dbErr := st.db.Where("token = ?", token).First(&record).Error
		if dbErr == nil {
			return sessionFromRecord(&record)
		}
		if !errors.Is(dbErr, gorm.ErrRecordNotFound) {
			return nil, dbErr
		}
	}

	record := models.WizardSession{
		Token:       uuid.New().String(),
		CurrentStep: 1,
		Data:        "{}",
	}
	if err := st.db.Create(&record).Error; err != nil {
		return nil, err
	}

	c.SetCookie(CookieName, record.Token, cookieMaxAge, "/", "", false, true)

	return sessionFromRecord(&record)
}

// Save writes the session's step data back to its row.
func (st *Store) Save(sess *Session) error {
	encoded, err := json.Marshal(sess.Data)
	if err != nil {
		return err
	}

	sess.record.CurrentStep = sess.CurrentStep
	sess.record.Data = string(encoded)

	return st.db.Save(sess.record).Error
}

func sessionFromRecord(record *models.WizardSession) (*Session, error) {
	sess := &Session{
		Token:       record.Token,
		CurrentStep: record.CurrentStep,
		record:      record,
	}

	raw := record.Data
	if raw == "" {
		raw = "{}"
	}

	// Decode-time validation: malformed session data resets the wizard
	// instead of surfacing as a confusing mid-step failure.
	if err := json.Unmarshal([]byte(raw), &sess.Data); err != nil {
		sess.Data = Data{}
		sess.CurrentStep = 1
	}

	return sess, nil
}
