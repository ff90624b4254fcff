package email

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/notify"
)

const (
	SubjectWelcome    = "Welcome to App in Science Platform!"
	SubjectActivation = "Congratulations! You've been accepted in the Club"

	ctaText = "join the whatsapp group"
)

// Inline styles only; most mail clients strip <style> blocks.
const layoutSource = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#2a2a2a;font-family:Arial, sans-serif;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" border="0" style="background-color:#2a2a2a;padding:20px 0;">
    <tr><td align="center">
      <table role="presentation" width="600" cellspacing="0" cellpadding="0" border="0" style="background-color:#333333;border-radius:12px;padding:40px;border:1px solid #444;">
        <tr>
          <td align="center" style="background-color:#0066CC;color:#ffffff;font-size:12px;font-weight:600;letter-spacing:2px;border:1px solid #666;padding:8px 16px;border-radius:6px;">APP IN SCIENCE PLATFORM</td>
        </tr>
        <tr>
          <td align="center" style="color:#ffffff;font-size:28px;font-weight:bold;padding:30px 0 20px;">{{ title }}</td>
        </tr>
        <tr>
          <td align="center" style="padding-bottom:20px;"><hr style="border:0;border-top:1px solid #666;width:80px;"></td>
        </tr>
        <tr>
          <td align="center" style="color:#ffffff;font-size:18px;font-weight:500;padding-bottom:20px;">Dear {{ last_name }} {{ first_name }},</td>
        </tr>
        <tr>
          <td style="color:#ccc;font-size:16px;line-height:1.6;text-align:left;padding-bottom:30px;">
{% if kind == "activation" %}
            We are delighted to inform you that you're now an active member of our club.<br><br>
            Your account is active, and you can start exploring all features we have to offer.<br><br>
            If you have any questions, don't hesitate to reach out to our support team.
{% else %}
            We are delighted to inform you that your registration has been successful!<br><br>
            Our team will carefully review your profile and keep you updated with our decision.<br><br>
            We appreciate your interest in joining our club.
{% endif %}
          </td>
        </tr>
{% if cta_link %}
        <tr>
          <td align="center">
            <a href="{{ cta_link }}" style="background-color:#25D366;color:#ffffff;text-decoration:none;padding:16px 32px;border-radius:8px;font-size:16px;font-weight:600;display:inline-block;">{{ cta_text }}</a>
          </td>
        </tr>
{% endif %}
        <tr>
          <td align="center" style="color:#ccc;font-size:14px;padding-top:40px;">Best regards,<br><span style="color:#fff;font-weight:500;">AIS Team</span></td>
        </tr>
      </table>
    </td></tr>
  </table>
</body>
</html>
`

// Renderer turns lifecycle events into HTML bodies.
type Renderer struct {
	layout         *pongo2.Template
	activationLink string
}

// NewRenderer compiles the layout. activationLink is the call to action of
// the activation email and may be empty.
func NewRenderer(activationLink string) (*Renderer, error) {
	tpl, err := pongo2.FromString(layoutSource)
	if err != nil {
		return nil, fmt.Errorf("compile email layout: %w", err)
	}
	return &Renderer{layout: tpl, activationLink: activationLink}, nil
}

func (r *Renderer) Welcome(to notify.Recipient) (string, error) {
	return r.layout.Execute(pongo2.Context{
		"kind":       "welcome",
		"title":      SubjectWelcome,
		"first_name": to.FirstName,
		"last_name":  to.LastName,
	})
}

func (r *Renderer) Activation(to notify.Recipient) (string, error) {
	return r.layout.Execute(pongo2.Context{
		"kind":       "activation",
		"title":      SubjectActivation,
		"first_name": to.FirstName,
		"last_name":  to.LastName,
		"cta_link":   r.activationLink,
		"cta_text":   ctaText,
	})
}
