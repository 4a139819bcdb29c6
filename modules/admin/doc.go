// Package admin is the back-office API: listing subscriptions, reading
// the webhook audit log and attaching operational metadata to records.
// Access is a single operator credential checked on every request behind
// a rate limiter; there are no admin accounts or roles.
package admin
