package email

// Config holds email delivery configuration. The Postmark tokens are
// optional so development environments can run with the logging sender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"hola@glomun.dev"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"soporte@glomun.dev"`
}
