package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var ErrCaptchaRejected = errors.New("captcha rejected")

// CaptchaVerifier checks reCAPTCHA response tokens against Google's
// siteverify endpoint.
type CaptchaVerifier struct {
	secret string
	client *http.Client
}

func NewCaptchaVerifier(secret string) *CaptchaVerifier {
	return &CaptchaVerifier{
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify validates a captcha token. An empty configured secret disables
// verification so local development works without captcha keys.
func (v *CaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if v.secret == "" {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return ErrCaptchaRejected
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recaptchaVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if !result.Success {
		return ErrCaptchaRejected
	}
	return nil
}
