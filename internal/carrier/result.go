package carrier

// Result is the outcome of a carrier exchange. Gateway calls never return
// errors; transport failures, malformed responses and carrier rejections are
// all folded into a non-success Result so callers have a single path to
// inspect and record.
type Result struct {
	// Success is true only when the carrier answered with return code "0"
	Success bool
	// PolicyNumber and CertificateNumber identify the issued policy
	PolicyNumber      string
	CertificateNumber string
	// OperationNumber is the carrier's handle for the issue operation.
	// It is required later to cancel the policy.
	OperationNumber string
	// ReturnCode and ReturnMessage echo the carrier's verdict
	ReturnCode    string
	ReturnMessage string
	// RawRequest and Raw hold the exact payloads exchanged, for the archive
	// and the event trail
	RawRequest string
	Raw        string
}
