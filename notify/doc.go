// Package notify delivers issued PINs over two independent channels: a
// WhatsApp message through the Twilio REST API and an email through the
// SendGrid v3 API.
//
// [Dispatcher.Start] runs both sends concurrently; [Pending.Wait] joins them
// with a deadline. A channel that is disabled, fails, panics or is still
// running at the deadline reports Sent=false. Delivery is best-effort and
// never surfaces an error to the caller.
//
// Destinations are only ever logged or reported in masked form
// ([MaskPhone], [MaskEmail]). The PIN itself is never logged.
package notify
