package logger

import "log/slog"

// Component tags records with the subsystem that produced them.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Error records an error value under the conventional "error" key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// PreapprovalID tags records with the processor-assigned agreement id.
func PreapprovalID(id string) slog.Attr {
	return slog.String("preapproval_id", id)
}

// Email tags records with a payer email address.
func Email(email string) slog.Attr {
	return slog.String("email", email)
}
