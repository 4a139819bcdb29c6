// Package mercadopago is a typed client for the Mercado Pago preapproval
// API, the recurring-billing agreement object behind every portal
// subscription.
//
// The processor owns billing state authoritatively: this client only
// creates agreements, reads their current status and requests
// cancellation. Webhook authenticity checks (the x-signature manifest
// scheme) and notification payload parsing live here as well, next to the
// wire format they belong to.
package mercadopago
