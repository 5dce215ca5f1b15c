// Copyright 2025 WIWI
// SPDX-License-Identifier: Apache-2.0
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"wiwi/backend/shared/logger"
)

// Config configures the SMTP mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

const defaultSMTPTimeout = 10 * time.Second

// Mailer delivers HTML email over SMTP with STARTTLS.
type Mailer struct {
	cfg Config
	log *logger.Logger

	// send is swapped out by tests.
	send func(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer validates the configuration and returns a Mailer.
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultSMTPTimeout
	}

	m := &Mailer{
		cfg: cfg,
		log: logger.New("notify"),
	}
	m.send = m.sendSMTP
	return m, nil
}

// WinnerNotice is the generic winner notification.
type WinnerNotice struct {
	UserEmail string `json:"user_email"`
	Username  string `json:"username"`
	ItemName  string `json:"item_name"`
	Message   string `json:"message"`
}

// RaffleWinnerNotice is the detailed raffle winner notification.
type RaffleWinnerNotice struct {
	WinnerID        string `json:"winner_id"`
	ItemID          string `json:"item_id"`
	WinnerEmail     string `json:"winner_email"`
	ItemTitle       string `json:"item_title"`
	SellerEmail     string `json:"seller_email"`
	TicketCost      int    `json:"ticket_cost"`
	TicketsSpent    int    `json:"tickets_spent"`
	CharityOverflow int    `json:"charity_overflow"`
}

// SendWinnerEmail sends the generic winner notice. The message body is used
// as the HTML content verbatim.
func (m *Mailer) SendWinnerEmail(ctx context.Context, notice WinnerNotice) error {
	if !validEmail(notice.UserEmail) {
		return fmt.Errorf("invalid recipient address: %s", notice.UserEmail)
	}

	body, err := renderWinnerEmail(notice)
	if err != nil {
		return fmt.Errorf("failed to render winner email: %w", err)
	}

	subject := "You Won!! - WIWI Raffle"
	if err := m.send(ctx, notice.UserEmail, subject, body); err != nil {
		m.log.Error("", "winner email send failed", map[string]interface{}{
			"to":    notice.UserEmail,
			"error": err.Error(),
		})
		return err
	}

	m.log.Info("", "winner email sent", map[string]interface{}{"to": notice.UserEmail})
	return nil
}

// SendRaffleWinnerEmail renders and sends the detailed raffle winner email.
func (m *Mailer) SendRaffleWinnerEmail(ctx context.Context, notice RaffleWinnerNotice) error {
	if !validEmail(notice.WinnerEmail) {
		return fmt.Errorf("invalid recipient address: %s", notice.WinnerEmail)
	}

	body, err := renderRaffleWinnerEmail(notice)
	if err != nil {
		return fmt.Errorf("failed to render raffle winner email: %w", err)
	}

	subject := fmt.Sprintf("You Won: %s - WIWI Raffle", notice.ItemTitle)
	if err := m.send(ctx, notice.WinnerEmail, subject, body); err != nil {
		m.log.Error("", "raffle winner email send failed", map[string]interface{}{
			"to":      notice.WinnerEmail,
			"item_id": notice.ItemID,
			"error":   err.Error(),
		})
		return err
	}

	m.log.Info("", "raffle winner email sent", map[string]interface{}{
		"to":      notice.WinnerEmail,
		"item_id": notice.ItemID,
	})
	return nil
}

func (m *Mailer) sendSMTP(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	message := buildMessage(m.cfg.From, to, subject, htmlBody)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	conn, err := net.DialTimeout("tcp", addr, m.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func buildMessage(from, to, subject, htmlBody string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.String()
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return strings.Contains(parts[1], ".")
}
