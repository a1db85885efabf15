package notify

import (
	"fmt"
	"html"
	"time"
)

const (
	productName  = "Store POS"
	emailSubject = "Your temporary PIN - " + productName
)

// Content is the rendered PIN notification for both channels.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// RenderPin embeds the operator name, the PIN and its validity window.
func RenderPin(name, pin string, validity time.Duration) Content {
	window := validityLabel(validity)
	text := fmt.Sprintf(
		"*%s*\n\nHello %s,\n\nYour temporary PIN is: *%s*\n\nThis PIN is valid for %s.\n\nDo not share this code with anyone.",
		productName, name, pin, window,
	)

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: #fff; padding: 40px; border-radius: 10px;">
    <h1 style="text-align: center; color: #667eea;">%s</h1>
    <p style="text-align: center;">Hello <strong>%s</strong>,</p>
    <p style="text-align: center;">Your temporary PIN is:</p>
    <div style="font-size: 48px; letter-spacing: 10px; text-align: center; font-weight: bold; color: #667eea;">%s</div>
    <p style="text-align: center;">This PIN is valid for <strong>%s</strong>.</p>
    <p style="text-align: center;">Do not share this code with anyone.</p>
    <p style="text-align: center; color: #999; font-size: 12px;">If you did not request this PIN, ignore this message.</p>
  </div>
</body>
</html>
`, productName, html.EscapeString(name), pin, window)

	return Content{Subject: emailSubject, Text: text, HTML: body}
}

func validityLabel(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
