package constant

const (
	EventInvoiceSubmitted        = "INVOICE_SUBMITTED"
	EventInvoiceSubmissionFailed = "INVOICE_SUBMISSION_FAILED"

	DiagnosticsTopic = "operator.diagnostics"
)
