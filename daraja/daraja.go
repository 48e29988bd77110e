// Package daraja is a client for the Safaricom Daraja API, covering the two
// calls the enrollment flow needs: OAuth token generation and Lipa na M-PESA
// STK push. The push itself is fire-and-forget; the actual payment outcome
// arrives later on the callback URL.
package daraja

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

var (
	// ErrUpstreamAuth means the consumer key/secret exchange failed.
	ErrUpstreamAuth = errors.New("daraja: access token request failed")
	// ErrUpstreamCharge means Daraja rejected the STK push request. The
	// caller reports this as "try again"; it is never retried automatically
	// because a PIN prompt may already be on the customer's phone.
	ErrUpstreamCharge = errors.New("daraja: stk push request rejected")
)

type Client struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	HTTPClient     *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClientFromEnv builds a client from the SAFARICOM_* environment variables.
func NewClientFromEnv() *Client {
	baseURL := os.Getenv("SAFARICOM_API_URL")
	if baseURL == "" {
		baseURL = "https://api.safaricom.co.ke"
	}

	return &Client{
		BaseURL:        baseURL,
		ConsumerKey:    os.Getenv("SAFARICOM_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("SAFARICOM_SECRET_KEY"),
		ShortCode:      os.Getenv("SAFARICOM_SHORTCODE"),
		Passkey:        os.Getenv("SAFARICOM_PASSKEY"),
		CallbackURL:    os.Getenv("SAFARICOM_CALLBACK_URL"),
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// NormalizePhone rewrites a payer phone number into the international format
// Daraja expects. A 10-digit local number ("0712345678") has its trunk prefix
// replaced with the country code; a 13-character "+254..." number loses the
// "+". Anything else is passed through and left for the gateway to judge.
func NormalizePhone(phone string) string {
	switch len(phone) {
	case 10:
		return "254" + phone[1:]
	case 13:
		return phone[1:]
	default:
		return phone
	}
}

// Timestamp formats t the way the STK push password expects: YYYYMMDDhhmmss.
func Timestamp(t time.Time) string {
	return t.Format("20060102150405")
}

// Password derives the STK push request password for the given timestamp.
func (c *Client) Password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.Passkey + timestamp))
}

// AccessToken returns a bearer token for the API, reusing a previously issued
// one until shortly before its stated expiry.
func (c *Client) AccessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	req, err := http.NewRequest("GET", c.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.ConsumerKey, c.ConsumerSecret)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUpstreamAuth, res.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamAuth, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUpstreamAuth)
	}

	// Tokens are issued for 3599 seconds; refresh a minute early.
	ttl := time.Hour
	if secs, err := time.ParseDuration(body.ExpiresIn + "s"); err == nil && secs > 0 {
		ttl = secs
	}
	c.accessToken = body.AccessToken
	c.tokenExpiry = time.Now().Add(ttl - time.Minute)

	return c.accessToken, nil
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is Daraja's acknowledgment of a push request. It confirms
// the charge was requested, not that it succeeded.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
}

// InitiateSTKPush sends a PIN prompt to the payer's phone. accountRef travels
// in AccountReference so the charge stays traceable to the initiating wizard
// session.
func (c *Client) InitiateSTKPush(phone string, amount int, accountRef string) (*STKPushResponse, error) {
	token, err := c.AccessToken()
	if err != nil {
		return nil, err
	}

	timestamp := Timestamp(time.Now())
	payload := stkPushRequest{
		BusinessShortCode: c.ShortCode,
		Password:          c.Password(timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            NormalizePhone(phone),
		PartyB:            c.ShortCode,
		PhoneNumber:       NormalizePhone(phone),
		CallBackURL:       c.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   "Course Payment",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamCharge, err)
	}
	defer res.Body.Close()

	var ack STKPushResponse
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamCharge, err)
	}

	if ack.ErrorCode != "" {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUpstreamCharge, ack.ErrorMessage, ack.ErrorCode)
	}
	if ack.ResponseCode != "0" {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamCharge, ack.ResponseDescription)
	}

	return &ack, nil
}
