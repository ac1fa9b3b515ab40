package notification

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/Frankish0014/baho-coffee-sub000/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Templates renders every transactional email. Bodies are written as
// markdown; the markdown is the text part and its HTML rendering the HTML part.
type Templates struct {
	md         goldmark.Markdown
	brand      string
	adminEmail string
}

func NewTemplates(brand, adminEmail string) *Templates {
	return &Templates{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		brand:      brand,
		adminEmail: adminEmail,
	}
}

func (t *Templates) AdminEmail() string {
	return t.adminEmail
}

func (t *Templates) OrderConfirmation(p *domain.PaymentRecord) domain.EmailMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "# Thank you for your order, %s!\n\n", escape(p.Customer.Name))
	fmt.Fprintf(&b, "Your payment for order **%s** has been received.\n\n", p.OrderID)
	writeItems(&b, p)
	writeShipping(&b, p.Shipping)
	fmt.Fprintf(&b, "We will let you know as soon as your coffee ships.\n\n%s\n", t.brand)

	return t.render(p.Customer.Email, fmt.Sprintf("Order confirmation %s", p.OrderID), b.String())
}

func (t *Templates) AdminNewOrder(p *domain.PaymentRecord) domain.EmailMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "# New paid order %s\n\n", p.OrderID)
	writeCustomer(&b, p)
	writeItems(&b, p)
	writeShipping(&b, p.Shipping)
	if p.StripePaymentIntentID != "" {
		fmt.Fprintf(&b, "Processor reference: `%s`\n", p.StripePaymentIntentID)
	}

	return t.render(t.adminEmail, fmt.Sprintf("New order %s (%s)", p.OrderID, money(p.Amount, p.Currency)), b.String())
}

func (t *Templates) BankInstructions(p *domain.PaymentRecord, in domain.BankInstructions) domain.EmailMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "# Bank transfer instructions for order %s\n\n", p.OrderID)
	fmt.Fprintf(&b, "Hello %s, thank you for your order. Please transfer **%s** to the account below.\n\n",
		escape(p.Customer.Name), money(in.Amount, in.Currency))
	writeBankDetails(&b, in)
	fmt.Fprintf(&b, "Use **%s** as the payment reference so we can match your transfer.\n"+
		"Your order ships once the funds have arrived.\n\n", in.Reference)
	writeItems(&b, p)
	fmt.Fprintf(&b, "%s\n", t.brand)

	return t.render(p.Customer.Email, fmt.Sprintf("Payment instructions for order %s", p.OrderID), b.String())
}

func (t *Templates) AdminBankOrder(p *domain.PaymentRecord, in domain.BankInstructions) domain.EmailMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "# New bank-transfer order %s\n\n", p.OrderID)
	fmt.Fprintf(&b, "Awaiting a transfer of **%s** with reference **%s**.\n\n", money(in.Amount, in.Currency), in.Reference)
	writeCustomer(&b, p)
	writeItems(&b, p)
	writeShipping(&b, p.Shipping)

	return t.render(t.adminEmail, fmt.Sprintf("Bank transfer order %s (%s)", p.OrderID, money(p.Amount, p.Currency)), b.String())
}

func (t *Templates) ContactAcknowledgement(s *domain.ContactSubmission) domain.EmailMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\n", escape(s.Name))
	b.WriteString("Thank you for contacting us. We received your message and will reply within two business days.\n\n")
	fmt.Fprintf(&b, "> %s\n\n", quote(s.Message))
	fmt.Fprintf(&b, "%s\n", t.brand)

	return t.render(s.Email, fmt.Sprintf("We received your message - %s", t.brand), b.String())
}

func (t *Templates) QuotationAcknowledgement(q *domain.QuotationRequest) domain.EmailMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\n", escape(q.Name))
	fmt.Fprintf(&b, "Thank you for your quotation request for **%s** (%s). "+
		"Our export team will prepare an offer and get back to you shortly.\n\n",
		escape(q.CoffeeType), escape(q.Quantity))
	fmt.Fprintf(&b, "%s\n", t.brand)

	return t.render(q.Email, fmt.Sprintf("Your quotation request - %s", t.brand), b.String())
}

func (t *Templates) AdminContact(s *domain.ContactSubmission) domain.EmailMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "# New contact message\n\n")
	writeFields(&b, [][2]string{
		{"Name", s.Name},
		{"Email", s.Email},
		{"Phone", s.Phone},
		{"Company", s.Company},
		{"Subject", s.Subject},
	})
	fmt.Fprintf(&b, "> %s\n\nReference: `%s`\n", quote(s.Message), s.ID)

	subject := "New contact message"
	if s.Subject != "" {
		subject = fmt.Sprintf("%s: %s", subject, s.Subject)
	}
	return t.render(t.adminEmail, subject, b.String())
}

func (t *Templates) AdminQuotation(q *domain.QuotationRequest) domain.EmailMessage {
	var b strings.Builder

	fmt.Fprintf(&b, "# New quotation request\n\n")
	writeFields(&b, [][2]string{
		{"Name", q.Name},
		{"Email", q.Email},
		{"Phone", q.Phone},
		{"Company", q.Company},
		{"Country", q.Country},
		{"Coffee", q.CoffeeType},
		{"Quantity", q.Quantity},
		{"Delivery terms", q.DeliveryTerms},
		{"Washing station", q.WashingStation},
	})
	if q.Message != "" {
		fmt.Fprintf(&b, "> %s\n\n", quote(q.Message))
	}
	fmt.Fprintf(&b, "Reference: `%s`\n", q.ID)

	return t.render(t.adminEmail, fmt.Sprintf("Quotation request from %s (%s)", q.Company, q.Country), b.String())
}

func (t *Templates) render(to, subject, markdown string) domain.EmailMessage {
	var buf bytes.Buffer
	htmlBody := ""
	if err := t.md.Convert([]byte(markdown), &buf); err != nil {
		log.Printf("Email HTML render error: Subject=%q: %v", subject, err)
	} else {
		htmlBody = buf.String()
	}

	return domain.EmailMessage{
		To:       to,
		Subject:  subject,
		TextBody: markdown,
		HTMLBody: htmlBody,
	}
}

func writeItems(b *strings.Builder, p *domain.PaymentRecord) {
	b.WriteString("| Item | Qty | Unit price | Total |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, item := range p.Items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		fmt.Fprintf(b, "| %s | %d | %s | %s |\n",
			escape(name), item.Quantity, money(item.UnitPrice, p.Currency), money(item.Total, p.Currency))
	}
	fmt.Fprintf(b, "| **Total** | | | **%s** |\n\n", money(p.Amount, p.Currency))
}

func writeShipping(b *strings.Builder, s domain.ShippingAddress) {
	b.WriteString("**Shipping to**\n")
	fmt.Fprintf(b, "%s\n", escape(s.Address))
	if s.ZipCode != "" {
		fmt.Fprintf(b, "%s %s\n", escape(s.ZipCode), escape(s.City))
	} else {
		fmt.Fprintf(b, "%s\n", escape(s.City))
	}
	fmt.Fprintf(b, "%s\n\n", escape(s.Country))
}

func writeCustomer(b *strings.Builder, p *domain.PaymentRecord) {
	writeFields(b, [][2]string{
		{"Customer", p.Customer.Name},
		{"Email", p.Customer.Email},
		{"Phone", p.Customer.Phone},
		{"Payment method", string(p.PaymentMethod)},
	})
}

func writeBankDetails(b *strings.Builder, in domain.BankInstructions) {
	writeFields(b, [][2]string{
		{"Bank", in.BankName},
		{"Account name", in.AccountName},
		{"Account number", in.AccountNumber},
		{"SWIFT/BIC", in.SwiftCode},
		{"Bank address", in.BankAddress},
		{"Reference", in.Reference},
	})
}

// writeFields writes a bullet list, skipping empty values.
func writeFields(b *strings.Builder, fields [][2]string) {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			continue
		}
		fmt.Fprintf(b, "- **%s:** %s\n", f[0], escape(f[1]))
	}
	b.WriteString("\n")
}

func money(amount float64, currency string) string {
	return fmt.Sprintf("%s %.2f", strings.ToUpper(currency), amount)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "|", `\|`, "#", `\#`,
)

// escape neutralises markdown in visitor-supplied text.
func escape(s string) string {
	return markdownEscaper.Replace(strings.TrimSpace(s))
}

func quote(s string) string {
	return strings.ReplaceAll(escape(s), "\n", "\n> ")
}
