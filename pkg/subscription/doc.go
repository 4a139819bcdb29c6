// Package subscription holds the portal's only durable state: one
// document per recurring-billing agreement, plus the append-only webhook
// event log.
//
// Status is a closed enumeration with an explicit transition table.
// Cancelled is terminal: no accessor will move a record out of it, which
// is what revokes every session cookie referencing the record.
package subscription
