// Package billing owns the recurring-billing lifecycle: creating
// preapproval agreements at the payment processor, receiving its webhook
// notifications, reconciling local subscription state with the
// processor's authoritative records, and retiring superseded agreements
// after an upgrade.
//
// The processor is the source of truth for agreement status. Local
// records follow it through webhook-driven reconciliation; the module
// never invents a status the processor has not reported.
package billing
