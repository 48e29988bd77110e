package payments

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thedevbrian1/paragon-net/broadcast"
	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCallbackTest(t *testing.T) (*gin.Engine, *broadcast.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:callback_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MpesaPayment{}))
	utils.DB = db

	hub := broadcast.NewHub()
	t.Cleanup(func() { hub.Close() })

	r := gin.New()
	r.POST("/payment-callback", MpesaCallback(hub))

	return r, hub
}

func postCallback(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/payment-callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func receiveEvent(t *testing.T, sub *broadcast.Subscription) broadcast.Transaction {
	t.Helper()
	select {
	case tx := <-sub.C:
		return tx
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast event")
		return broadcast.Transaction{}
	}
}

// PhoneNumber and Amount arrive as JSON numbers in real Daraja callbacks.
const successCallback = `{
	"Body": {
		"stkCallback": {
			"MerchantRequestID": "29115-34620561-1",
			"CheckoutRequestID": "ws_CO_191220191020363925",
			"ResultCode": 0,
			"ResultDesc": "The service request is processed successfully.",
			"CallbackMetadata": {
				"Item": [
					{"Name": "Amount", "Value": 1500.00},
					{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
					{"Name": "TransactionDate", "Value": 20191219102115},
					{"Name": "PhoneNumber", "Value": 254712345678}
				]
			}
		}
	}
}`

func TestMpesaCallbackPublishesTransaction(t *testing.T) {
	r, hub := setupCallbackTest(t)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	w := postCallback(r, successCallback)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	tx := receiveEvent(t, sub)
	assert.Equal(t, broadcast.StatusSuccess, tx.Status)
	assert.Equal(t, "NLJ7RT61SV", tx.Code)
	assert.Equal(t, "254712345678", tx.Phone, "numeric PhoneNumber must keep its digits")
	assert.Equal(t, 1500.0, tx.Amount)
	assert.Equal(t, "ws_CO_191220191020363925", tx.CheckoutRequestID)
}

func TestMpesaCallbackUpdatesAuditRow(t *testing.T) {
	r, _ := setupCallbackTest(t)

	require.NoError(t, utils.DB.Create(&models.MpesaPayment{
		CheckoutRequestID: "ws_CO_191220191020363925",
		PhoneNumber:       "254712345678",
		Amount:            1500,
		Status:            "Pending",
	}).Error)

	postCallback(r, successCallback)

	var payment models.MpesaPayment
	require.NoError(t, utils.DB.Where("checkout_request_id = ?", "ws_CO_191220191020363925").First(&payment).Error)
	assert.Equal(t, "Success", payment.Status)
}

func TestMpesaCallbackFailedResultPublishesFailure(t *testing.T) {
	r, hub := setupCallbackTest(t)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	w := postCallback(r, `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user"
			}
		}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)

	tx := receiveEvent(t, sub)
	assert.Equal(t, broadcast.StatusFailed, tx.Status)
	assert.Equal(t, "ws_CO_191220191020363925", tx.CheckoutRequestID)
	assert.Empty(t, tx.Code)
}

func TestMpesaCallbackMalformedBodyStillAcknowledges(t *testing.T) {
	r, hub := setupCallbackTest(t)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	for _, body := range []string{"not json at all", "{}", `{"Body":{"stkCallback":{"ResultCode":0}}}`} {
		w := postCallback(r, body)
		assert.Equal(t, http.StatusOK, w.Code, "gateway always expects a 200, body: %s", body)
	}

	select {
	case tx := <-sub.C:
		t.Fatalf("no event should be published for malformed payloads, got %+v", tx)
	case <-time.After(50 * time.Millisecond):
	}
}
