package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRunID       = "run_id"
	FieldTemplateID  = "template_id"
	FieldUserID      = "user_id"
	FieldAmountCents = "amount_cents"
	FieldFrequency   = "frequency"
	FieldError       = "error"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentScheduler = "scheduler"
	ComponentProcessor = "processor"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
)
