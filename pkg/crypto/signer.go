package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Signer produces HMAC-SHA256 signatures over account statements so a
// client can tell a statement came from this ledger unchanged.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	signature := mac.Sum(nil)
	return hex.EncodeToString(signature)
}

func (s *Signer) Verify(data []byte, signature string) (bool, error) {
	expectedSignature := s.Sign(data)

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.String("received", signature))
		return false, fmt.Errorf("invalid signature")
	}

	return true, nil
}

// SignStatement signs the canonical form of a statement. Every string field
// is length-prefixed, so no choice of holder or history text can make two
// different statements encode the same way.
func (s *Signer) SignStatement(accountID, holder, balance string, history []string, timestamp int64) string {
	return s.Sign(statementPayload(accountID, holder, balance, history, timestamp))
}

func (s *Signer) VerifyStatement(accountID, holder, balance string, history []string, timestamp int64, signature string) (bool, error) {
	return s.Verify(statementPayload(accountID, holder, balance, history, timestamp), signature)
}

func statementPayload(accountID, holder, balance string, history []string, timestamp int64) []byte {
	var b strings.Builder
	writeField(&b, accountID)
	writeField(&b, holder)
	writeField(&b, balance)
	fmt.Fprintf(&b, "%d;%d;", timestamp, len(history))
	for _, line := range history {
		writeField(&b, line)
	}
	return []byte(b.String())
}

func writeField(b *strings.Builder, s string) {
	fmt.Fprintf(b, "%d:%s;", len(s), s)
}
