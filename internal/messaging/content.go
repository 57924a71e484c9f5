package messaging

import (
	"fmt"
	"strings"
)

// firstName extracts the customer's first name, falling back to a friendly
// generic greeting.
func firstName(customerName *string) string {
	if customerName == nil || strings.TrimSpace(*customerName) == "" {
		return "there"
	}

	parts := strings.Fields(*customerName)
	return parts[0]
}

// EmailSubject returns the subject line for the given touch point.
func EmailSubject(touchPoint int) string {
	switch touchPoint {
	case 1:
		return "Your Tint World Quote is Ready!"
	case 2:
		return "Following up on your window tinting quote"
	case 3:
		return "Still interested in window tinting?"
	default:
		return "Your Tint World Quote"
	}
}

// EmailBody renders the plain-text and HTML bodies for a touch point email.
func EmailBody(customerName *string, chatLink string) (text, html string) {
	name := firstName(customerName)

	text = fmt.Sprintf(`Hi %s,

Thank you for requesting a quote from Tint World! We're excited to help you with your window tinting needs.

I'm here to answer any questions you might have and help you schedule an appointment that works for you.

Click here to chat with me: %s

Looking forward to hearing from you!

Best regards,
Tint World Team`, name, chatLink)

	html = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Hi %s,</h2>
  <p>Thank you for requesting a quote from Tint World! We're excited to help you with your window tinting needs.</p>
  <p>I'm here to answer any questions you might have and help you schedule an appointment that works for you.</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Chat With Us Now</a>
  </p>
  <p>Looking forward to hearing from you!</p>
  <p>Best regards,<br>Tint World Team</p>
</div>`, name, chatLink)

	return text, html
}

// SMSBody renders the SMS text for the given touch point.
func SMSBody(touchPoint int, customerName *string, chatLink string) string {
	name := firstName(customerName)

	switch touchPoint {
	case 1:
		return fmt.Sprintf("Hi %s! Thanks for requesting a quote from Tint World. I'm here to help answer any questions and get your appointment scheduled. %s", name, chatLink)
	case 2:
		return fmt.Sprintf("Hi %s, just following up on your window tinting quote. Have any questions? %s", name, chatLink)
	case 3:
		return fmt.Sprintf("%s, still interested in getting your windows tinted? I'm here to help! %s", name, chatLink)
	default:
		return fmt.Sprintf("Hi %s, following up on your Tint World quote. Let me know if you'd like to schedule! %s", name, chatLink)
	}
}
