package mail

import (
	"context"
	"fmt"
	"html"
	"strings"

	"food-storefront/config"
	"food-storefront/models"
	"food-storefront/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rs/zerolog"
)

// SettingsReader supplies the shop name shown in emails.
type SettingsReader interface {
	GetSettings(ctx context.Context) (models.Settings, error)
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier emails customers who left an address at checkout.
type SESNotifier struct {
	client   sesAPI
	sender   string
	settings SettingsReader
	fallback string
	log      zerolog.Logger
}

// NewSESNotifier builds an SES client from the email config. Static keys are
// used when set; otherwise the default AWS credential chain applies. The
// shop name comes from the stored settings, then from fallbackName.
func NewSESNotifier(ctx context.Context, cfg config.EmailConfig, settings SettingsReader, fallbackName string, log zerolog.Logger) (*SESNotifier, error) {
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("sender email address is not configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}
	return newSESNotifier(ses.NewFromConfig(awsCfg), cfg.SenderEmail, settings, fallbackName, log), nil
}

func newSESNotifier(client sesAPI, sender string, settings SettingsReader, fallbackName string, log zerolog.Logger) *SESNotifier {
	if fallbackName == "" {
		fallbackName = "our shop"
	}
	return &SESNotifier{client: client, sender: sender, settings: settings, fallback: fallbackName, log: log}
}

// shopName reads the name from settings on every email so a rename in the
// dashboard shows up without a restart.
func (n *SESNotifier) shopName(ctx context.Context) string {
	if n.settings == nil {
		return n.fallback
	}
	st, err := n.settings.GetSettings(ctx)
	if err != nil {
		n.log.Warn().Err(err).Msg("load shop settings for email")
		return n.fallback
	}
	if name := strings.TrimSpace(st.Shop.ShopName); name != "" {
		return name
	}
	return n.fallback
}

// Message is a rendered email.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

func (n *SESNotifier) confirmation(o *models.Order, shop string) Message {
	var text, rows strings.Builder
	for _, li := range o.Items {
		fmt.Fprintf(&text, "- %d x %s: R%.2f\n", li.Quantity, li.NameAtPurchase, li.Subtotal())
		fmt.Fprintf(&rows, "<li>%d &times; %s: R%.2f</li>", li.Quantity, html.EscapeString(li.NameAtPurchase), li.Subtotal())
	}
	pickup := ""
	if o.EstimatedReady != nil {
		pickup = fmt.Sprintf("Estimated ready time: %s\n", o.EstimatedReady.Format("15:04"))
	}
	return Message{
		Subject: fmt.Sprintf("Order %s confirmed", o.OrderNumber),
		Text: fmt.Sprintf("Dear %s,\n\nThank you for your order at %s! Your order number is %s.\n\n%s\nTotal: R%.2f\nPayment: %s\n%s\nShow your order number when you collect.\n",
			o.Customer.Name, shop, o.OrderNumber, text.String(), o.TotalAmount, o.PaymentMethod, pickup),
		HTML: fmt.Sprintf(`<html><body>
<p>Dear %s,</p>
<p>Thank you for your order at %s! Your order number is <strong>%s</strong>.</p>
<ul>%s</ul>
<p>Total: <strong>R%.2f</strong><br>Payment: %s</p>
<p>%s</p>
<p>Show your order number when you collect.</p>
</body></html>`,
			html.EscapeString(o.Customer.Name), html.EscapeString(shop), html.EscapeString(o.OrderNumber),
			rows.String(), o.TotalAmount, html.EscapeString(o.PaymentMethod), html.EscapeString(pickup)),
	}
}

func (n *SESNotifier) statusUpdate(o *models.Order, shop string) Message {
	line := services.CustomerMessageForOrderStatus(o, o.Status)
	return Message{
		Subject: fmt.Sprintf("Order %s: %s", o.OrderNumber, services.StatusLabel(o.Status)),
		Text:    fmt.Sprintf("Dear %s,\n\n%s\n\n%s\n", o.Customer.Name, line, shop),
		HTML: fmt.Sprintf("<html><body><p>Dear %s,</p><p>%s</p><p>%s</p></body></html>",
			html.EscapeString(o.Customer.Name), html.EscapeString(line), html.EscapeString(shop)),
	}
}

func (n *SESNotifier) send(ctx context.Context, to string, m Message) error {
	input := &ses.SendEmailInput{
		Source: aws.String(n.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(m.Subject)},
			Body: &types.Body{
				Html: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(m.HTML)},
				Text: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(m.Text)},
			},
		},
	}
	_, err := n.client.SendEmail(ctx, input)
	return err
}

func (n *SESNotifier) OrderCreated(ctx context.Context, o *models.Order) {
	if o.Customer.Email == "" {
		return
	}
	if err := n.send(ctx, o.Customer.Email, n.confirmation(o, n.shopName(ctx))); err != nil {
		n.log.Error().Err(err).Str("order_id", o.ID).Msg("send confirmation email")
		return
	}
	n.log.Info().Str("order_id", o.ID).Msg("confirmation email sent")
}

// OrderStatusChanged emails only when the customer has to act: ready for
// pickup, or cancelled.
func (n *SESNotifier) OrderStatusChanged(ctx context.Context, o *models.Order, _ string) {
	if o.Customer.Email == "" {
		return
	}
	if o.Status != services.OrderStatusReady && o.Status != services.OrderStatusCancelled {
		return
	}
	if err := n.send(ctx, o.Customer.Email, n.statusUpdate(o, n.shopName(ctx))); err != nil {
		n.log.Error().Err(err).Str("order_id", o.ID).Str("status", o.Status).Msg("send status email")
	}
}
var _ services.OrderNotifier = (*SESNotifier)(nil)
