package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"angels_reviews/internal/domain"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Mailer emails the owner when new Google reviews show up.
type Mailer struct{ cfg Config }

// New returns an SMTP notifier, or a log-only one when no host or recipient
// is configured.
func New(cfg Config) domain.Notifier {
	if cfg.Host == "" || cfg.To == "" {
		return LogNotifier{}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg}
}

func (m *Mailer) NotifyNewReviews(ctx context.Context, recs []domain.ReviewRecord) error {
	msg, err := m.message(recs)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	log.Info().Str("to", m.cfg.To).Int("reviews", len(recs)).Msg("sending new review notification")
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) message(recs []domain.ReviewRecord) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(Subject(recs))
	msg.SetBodyString(mail.TypeTextPlain, PlainBody(recs))
	msg.AddAlternativeString(mail.TypeTextHTML, HTMLBody(recs))
	return msg, nil
}

func Subject(recs []domain.ReviewRecord) string {
	return fmt.Sprintf("New Google reviews - %d five-star reviews on your profile", len(recs))
}

func PlainBody(recs []domain.ReviewRecord) string {
	var b strings.Builder
	b.WriteString("Your Google profile has new reviews. Current five-star reviews:\n\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "%s (%d stars)\n%s\n\n", r.AuthorName, r.Rating, r.Text)
	}
	return b.String()
}

func HTMLBody(recs []domain.ReviewRecord) string {
	var b strings.Builder
	b.WriteString("<h1>New Google reviews</h1><p>Current five-star reviews:</p>")
	for _, r := range recs {
		fmt.Fprintf(&b, "<blockquote><p>%s</p><footer>%s &middot; %d stars</footer></blockquote>",
			html.EscapeString(r.Text), html.EscapeString(r.AuthorName), r.Rating)
	}
	return b.String()
}

// LogNotifier only logs; used when SMTP is not configured.
type LogNotifier struct{}

func (LogNotifier) NotifyNewReviews(_ context.Context, recs []domain.ReviewRecord) error {
	log.Info().Int("reviews", len(recs)).Msg("new google reviews (email notifications disabled)")
	return nil
}
