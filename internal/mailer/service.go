// -----------------------------------------------------------------------
// Mailer Service - SMTP delivery of the digest email with inline charts
// -----------------------------------------------------------------------

package mailer

import (
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipodigest/internal/common"
	"github.com/ternarybob/ipodigest/internal/report"
)

// Service sends digest emails over SMTP.
type Service struct {
	config *common.EmailConfig
	logger arbor.ILogger
}

// NewService creates a mailer from the email configuration.
func NewService(config *common.EmailConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// IsConfigured checks whether the minimum SMTP settings are present.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != "" && s.config.From != ""
}

// SendDigest sends the HTML digest to the recipients with each chart
// embedded inline. Charts are referenced from the HTML through cid: URLs
// matching their content IDs.
func (s *Service) SendDigest(to []string, subject, htmlBody string, charts []report.ChartAsset) error {
	if !s.IsConfigured() {
		return fmt.Errorf("SMTP credentials not configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	msg, err := s.buildMessage(to, subject, htmlBody, charts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	s.logger.Debug().
		Str("host", s.config.Host).
		Int("recipients", len(to)).
		Int("charts", len(charts)).
		Msg("Sending digest email")

	if s.config.UseTLS {
		if err := s.sendWithTLS(addr, auth, to, msg); err != nil {
			return err
		}
	} else if err := smtp.SendMail(addr, auth, s.config.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("SMTP send failed: %w", err)
	}

	s.logger.Info().Int("recipients", len(to)).Msg("Digest email sent")
	return nil
}

// buildMessage assembles a multipart/related message: an alternative part
// holding the HTML body, followed by one inline image part per chart.
func (s *Service) buildMessage(to []string, subject, htmlBody string, charts []report.ChartAsset) (string, error) {
	relatedBoundary := generateBoundary()
	altBoundary := generateBoundary()

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/related; boundary=\"%s\"\r\n", relatedBoundary))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", relatedBoundary))
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", altBoundary))
	msg.WriteString("\r\n")

	// HTML part - base64 keeps lines under the RFC 5322 limit regardless of
	// the rendered content.
	msg.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks(htmlBody))
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))

	for _, chart := range charts {
		content, err := os.ReadFile(chart.FilePath)
		if err != nil {
			return "", fmt.Errorf("read chart %s: %w", chart.FilePath, err)
		}
		filename := filepath.Base(chart.FilePath)
		msg.WriteString(fmt.Sprintf("--%s\r\n", relatedBoundary))
		msg.WriteString(fmt.Sprintf("Content-Type: image/png; name=\"%s\"\r\n", filename))
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString(fmt.Sprintf("Content-ID: <%s>\r\n", chart.ContentID))
		msg.WriteString(fmt.Sprintf("Content-Disposition: inline; filename=\"%s\"\r\n", filename))
		msg.WriteString("\r\n")
		msg.WriteString(encodeBase64WithLineBreaks(string(content)))
		msg.WriteString("\r\n")
	}

	msg.WriteString(fmt.Sprintf("--%s--\r\n", relatedBoundary))
	return msg.String(), nil
}

// sendWithTLS sends over a direct TLS connection (Gmail on 465), falling
// back to STARTTLS when the direct handshake is refused (port 587).
func (s *Service) sendWithTLS(addr string, auth smtp.Auth, to []string, msg string) error {
	host := strings.Split(addr, ":")[0]

	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: host,
	})
	if err != nil {
		return s.sendWithSTARTTLS(addr, auth, to, msg)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	return s.transmit(client, auth, to, msg)
}

// sendWithSTARTTLS connects in plaintext and upgrades the session.
func (s *Service) sendWithSTARTTLS(addr string, auth smtp.Auth, to []string, msg string) error {
	host := strings.Split(addr, ":")[0]

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	return s.transmit(client, auth, to, msg)
}

func (s *Service) transmit(client *smtp.Client, auth smtp.Auth, to []string, msg string) error {
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set mail recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// generateBoundary creates a unique MIME boundary string.
func generateBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "ipodigest_boundary_fallback"
	}
	return fmt.Sprintf("ipodigest_%x", b)
}

// encodeBase64WithLineBreaks encodes content as base64 with 76-char line
// breaks per RFC 2045.
func encodeBase64WithLineBreaks(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	var result strings.Builder
	const lineLen = 76

	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		result.WriteString(encoded[i:end])
		if end < len(encoded) {
			result.WriteString("\r\n")
		}
	}

	return result.String()
}
