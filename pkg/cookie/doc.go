// Package cookie manages browser cookies with shared defaults.
//
// The portal's session cookie carries an opaque subscription identifier
// whose only proof of validity is that it still resolves to a non-cancelled
// subscription, so no signing or encryption is applied at this layer.
package cookie
