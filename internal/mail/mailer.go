package mail

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/config"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/models"
)

// Sender dials SMTP per message. Account lifecycle mail is advisory: the
// triggering operation never fails because a message could not be sent.
type Sender interface {
	SendAsync(to, subject, body string)
}

type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
	log     *zap.SugaredLogger
}

func NewMailer(cfg config.SMTPCfg, log *zap.SugaredLogger) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Email, cfg.Password),
		from:    cfg.Email,
		enabled: cfg.Enabled,
		log:     log,
	}
}

// SendAsync fires the message on its own goroutine; failures are logged and
// dropped.
func (m *Mailer) SendAsync(to, subject, body string) {
	if !m.enabled {
		return
	}
	go func() {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", body)

		if err := m.dialer.DialAndSend(msg); err != nil {
			m.log.Errorw("mail send failed", "to", to, "subject", subject, "err", err)
		}
	}()
}

// Notifier composes the account lifecycle messages on top of a Sender.
type Notifier struct {
	sender Sender
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) Welcome(u *models.User) {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your UniConnect account has been created and is pending verification by an administrator. You will be able to sign in once it is approved.</p>",
		u.FullName)
	n.sender.SendAsync(u.Email, "Welcome to UniConnect", body)
}

func (n *Notifier) Verified(u *models.User) {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your UniConnect account has been verified. You can now sign in with your registered email address.</p>",
		u.FullName)
	n.sender.SendAsync(u.Email, "Your UniConnect account is verified", body)
}

func (n *Notifier) Blocked(u *models.User) {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your UniConnect account has been blocked by an administrator. Please contact the administration office for assistance.</p>",
		u.FullName)
	n.sender.SendAsync(u.Email, "Your UniConnect account has been blocked", body)
}

func (n *Notifier) Unblocked(u *models.User) {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your UniConnect account has been unblocked. You can sign in again.</p>",
		u.FullName)
	n.sender.SendAsync(u.Email, "Your UniConnect account has been restored", body)
}
