// Package account is the session and identity bridge of the client
// portal. A session is nothing but a browser cookie holding a
// subscription's preapproval id; its validity is entirely delegated to
// that subscription's status, so cancelling a subscription revokes every
// cookie referencing it. Cookie-less re-authentication happens through
// single-use, time-boxed magic-link tokens delivered by email.
package account
