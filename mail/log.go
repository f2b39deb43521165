package mail

import (
	"context"
	"log"
)

// LogMailer prints outbound messages instead of delivering them. Useful in
// development and in tests that only care that a dispatch happened.
type LogMailer struct{}

func (LogMailer) SendVerification(_ context.Context, to, username, verifyURL string) error {
	log.Printf("mail: verification for %s (%s): %s", to, username, verifyURL)
	return nil
}

func (LogMailer) SendPasswordResetOTP(_ context.Context, to, username, code string) error {
	log.Printf("mail: password reset code for %s (%s): %s", to, username, code)
	return nil
}
