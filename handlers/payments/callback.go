package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/thedevbrian1/paragon-net/broadcast"
	"github.com/thedevbrian1/paragon-net/models"
	"github.com/thedevbrian1/paragon-net/utils"

	"github.com/gin-gonic/gin"
)

// stkCallback mirrors Daraja's nested callback envelope. CallbackMetadata is
// an unordered list of {Name, Value} pairs; Value types vary per item, so they
// are decoded as json.Number/string and picked out by name.
type stkCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// MpesaCallback receives Daraja's out-of-band payment result and republishes
// it on the broadcaster for the SSE stream. Daraja expects a 200 no matter
// what, so every failure path logs and acknowledges; nothing here may panic
// on a malformed payload.
func MpesaCallback(hub broadcast.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The payload may arrive chunked; read it to completion first.
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			log.Printf("Failed to read M-PESA callback body: %v", err)
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.UseNumber() // keep PhoneNumber as digits, not float notation

		var callback stkCallback
		if err := decoder.Decode(&callback); err != nil {
			log.Printf("Failed to parse M-PESA callback: %v", err)
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		result := callback.Body.StkCallback

		if result.ResultCode != 0 {
			log.Printf("M-PESA transaction failed: %s (code %d)", result.ResultDesc, result.ResultCode)
			markPaymentStatus(result.CheckoutRequestID, "Failed")

			// Tell the waiting browser explicitly instead of leaving the
			// wizard stuck on the payment step.
			hub.Publish(broadcast.Transaction{
				CheckoutRequestID: result.CheckoutRequestID,
				Status:            broadcast.StatusFailed,
			})
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		transaction := broadcast.Transaction{
			CheckoutRequestID: result.CheckoutRequestID,
			Status:            broadcast.StatusSuccess,
		}

		for _, item := range result.CallbackMetadata.Item {
			switch item.Name {
			case "Amount":
				transaction.Amount = itemFloat(item.Value)
			case "MpesaReceiptNumber":
				transaction.Code = itemString(item.Value)
			case "PhoneNumber":
				transaction.Phone = itemString(item.Value)
			}
		}

		if transaction.Code == "" || transaction.Phone == "" {
			log.Printf("M-PESA callback missing receipt or phone, ignoring: %s", string(body))
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}

		markPaymentStatus(result.CheckoutRequestID, "Success")

		hub.Publish(transaction)

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func markPaymentStatus(checkoutRequestID, status string) {
	if checkoutRequestID == "" || utils.DB == nil {
		return
	}
	if err := utils.DB.Model(&models.MpesaPayment{}).
		Where("checkout_request_id = ?", checkoutRequestID).
		Update("status", status).Error; err != nil {
		log.Printf("Failed to update M-PESA payment status: %v", err)
	}
}

func itemString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func itemFloat(value interface{}) float64 {
	switch v := value.(type) {
	case json.Number:
		f, _ := v.Float64()
		return f
	case float64:
		return v
	default:
		return 0
	}
}
