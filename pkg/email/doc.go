// Package email abstracts outbound transactional email behind the
// EmailSender interface. Production uses Postmark; development falls back
// to a sender that only logs, so magic-link flows remain testable without
// credentials.
package email
