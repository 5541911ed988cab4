package receipt

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/matsalen/desafio-procion/internal/domain"
)

// EmailDraft is a receipt message ready for a mail client. To is empty when
// the customer has no address; that is not an error.
type EmailDraft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Draft builds the email draft for o.
func (r *Renderer) Draft(o *domain.Order) EmailDraft {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", o.CustomerName(r.CustomerPlaceholder))
	fmt.Fprintf(&b, "Thank you for your purchase. Order #%d summary:\n\n", o.ID)
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "- %d x %s @ %s = %s\n",
			l.Quantity,
			l.ProductName(r.ProductPlaceholder),
			r.money(l.UnitPrice.StringFixed(2)),
			r.money(domain.LineSubtotal(l.Quantity, l.UnitPrice).StringFixed(2)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", r.money(o.Total.StringFixed(2)))
	if o.PaymentMethod != "" {
		fmt.Fprintf(&b, "Payment: %s\n", o.PaymentMethod)
	}
	fmt.Fprintf(&b, "\nThe receipt is attached as %s.\n\n%s\n", FileName(o), r.StoreName)

	return EmailDraft{
		To:      o.CustomerEmail(),
		Subject: fmt.Sprintf("Order #%d receipt", o.ID),
		Body:    b.String(),
	}
}

// MailtoURL returns a mailto: link that opens the draft in the user's mail client.
func (d EmailDraft) MailtoURL() string {
	q := url.Values{}
	q.Set("subject", d.Subject)
	q.Set("body", d.Body)
	u := url.URL{Scheme: "mailto", Opaque: d.To, RawQuery: strings.ReplaceAll(q.Encode(), "+", "%20")}
	return u.String()
}

// Message builds a MIME message for the draft, attaching pdf when it is not nil.
func (d EmailDraft) Message(from, filename string, pdf []byte) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	if d.To != "" {
		m.SetHeader("To", d.To)
	}
	m.SetHeader("Subject", d.Subject)
	m.SetBody("text/plain", d.Body)

	if pdf != nil {
		m.Attach(filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(pdf)
				return err
			}),
		)
	}
	return m
}

// WriteEML writes the draft as an .eml file body.
func (d EmailDraft) WriteEML(w io.Writer, from, filename string, pdf []byte) error {
	if _, err := d.Message(from, filename, pdf).WriteTo(w); err != nil {
		return fmt.Errorf("write eml: %w", err)
	}
	return nil
}
