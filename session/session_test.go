package session

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thedevbrian1/paragon-net/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:session_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.WizardSession{}))

	return NewStore(db)
}

func getWithCookie(t *testing.T, store *Store, cookie *http.Cookie) (*Session, []*http.Cookie) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/enroll", nil)
	if cookie != nil {
		c.Request.AddCookie(cookie)
	}

	sess, err := store.Get(c)
	require.NoError(t, err)

	return sess, w.Result().Cookies()
}

func sessionCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestGetCreatesSessionAndSetsCookie(t *testing.T) {
	store := newTestStore(t)

	sess, cookies := getWithCookie(t, store, nil)

	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, 1, sess.CurrentStep)

	cookie := sessionCookie(cookies)
	require.NotNil(t, cookie, "a session cookie must be set on first visit")
	assert.Equal(t, sess.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestStepDataRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess, cookies := getWithCookie(t, store, nil)

	initiated := time.Now().UTC().Truncate(time.Second)
	sess.Data.Payment = &PaymentStep{
		Phone:             "254712345678",
		CheckoutRequestID: "ws_CO_123",
		InitiatedAt:       initiated,
	}
	sess.Data.MpesaCode = "NLJ7RT61SV"
	sess.CurrentStep = 2
	require.NoError(t, store.Save(sess))

	reloaded, _ := getWithCookie(t, store, sessionCookie(cookies))

	assert.Equal(t, sess.Token, reloaded.Token)
	assert.Equal(t, 2, reloaded.CurrentStep)
	require.NotNil(t, reloaded.Data.Payment)
	assert.Equal(t, "254712345678", reloaded.Data.Payment.Phone)
	assert.Equal(t, "ws_CO_123", reloaded.Data.Payment.CheckoutRequestID)
	assert.True(t, initiated.Equal(reloaded.Data.Payment.InitiatedAt))
	assert.Equal(t, "NLJ7RT61SV", reloaded.Data.MpesaCode)
}

func TestUnknownCookieGetsFreshSession(t *testing.T) {
	store := newTestStore(t)

	stale := &http.Cookie{Name: CookieName, Value: "deadbeef"}
	sess, cookies := getWithCookie(t, store, stale)

	assert.NotEqual(t, "deadbeef", sess.Token)
	require.NotNil(t, sessionCookie(cookies))
}

func TestMalformedDataResetsWizard(t *testing.T) {
	store := newTestStore(t)

	record := models.WizardSession{Token: "broken-token", CurrentStep: 2, Data: "{not json"}
	require.NoError(t, store.db.Create(&record).Error)

	sess, _ := getWithCookie(t, store, &http.Cookie{Name: CookieName, Value: "broken-token"})

	assert.Equal(t, 1, sess.CurrentStep)
	assert.Nil(t, sess.Data.Payment)
}

func TestPopFlashClearsMessage(t *testing.T) {
	store := newTestStore(t)

	sess, cookies := getWithCookie(t, store, nil)
	sess.SetFlash("Enrolled successfully!")
	require.NoError(t, store.Save(sess))

	reloaded, _ := getWithCookie(t, store, sessionCookie(cookies))
	assert.Equal(t, "Enrolled successfully!", reloaded.PopFlash())
	assert.Empty(t, reloaded.PopFlash())
}
