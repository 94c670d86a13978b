package carrier

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIssueParams() IssueParams {
	return IssueParams{
		ProductCode:        "VIDA01",
		PlanCode:           "PLUS",
		SalesChannel:       "77",
		PartnerOperationID: "12345678901234",
		Premium:            decimal.NewFromFloat(149.9),
		InsuredName:        "Maria Souza",
		TaxDocument:        "12345678901",
		BirthDate:          time.Date(1985, 3, 12, 0, 0, 0, 0, time.UTC),
		Sex:                "F",
		StateCode:          "SP",
		StartDate:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEncodeIssueRequest(t *testing.T) {
	codec := &Codec{Username: "vitta", Password: "secret"}

	body, err := codec.EncodeIssueRequest(validIssueParams())
	require.NoError(t, err)

	var env requestEnvelope
	require.NoError(t, xml.Unmarshal(body, &env))

	assert.Equal(t, "vitta", env.Auth.Username)
	assert.Equal(t, "secret", env.Auth.Password)
	assert.Equal(t, "issuePolicy", env.Operation.Name)

	// The parameters travel as a complete inner document
	inner := env.Operation.Parameters.Text
	assert.True(t, strings.HasPrefix(inner, xml.Header))

	var ir issueRequest
	require.NoError(t, xml.Unmarshal([]byte(inner), &ir))
	assert.Equal(t, "VIDA01", ir.ProductCode)
	assert.Equal(t, "PLUS", ir.PlanCode)
	assert.Equal(t, "77", ir.SalesChannel)
	assert.Equal(t, "12345678901234", ir.PartnerOperationID)
	assert.Equal(t, "149.90", ir.Premium)
	assert.Equal(t, "Maria Souza", ir.Insured.Name)
	assert.Equal(t, "12345678901", ir.Insured.TaxDocument)
	assert.Equal(t, "1985-03-12", ir.Insured.BirthDate)
	assert.Equal(t, "F", ir.Insured.Sex)
	assert.Equal(t, "SP", ir.Insured.StateCode)
	assert.Equal(t, "2026-01-01", ir.Coverage.StartDate)
	assert.Equal(t, "2027-01-01", ir.Coverage.EndDate)
}

func TestEncodeIssueRequestCDATA(t *testing.T) {
	codec := &Codec{Username: "vitta", Password: "secret"}

	body, err := codec.EncodeIssueRequest(validIssueParams())
	require.NoError(t, err)

	// The inner document must be wrapped in CDATA, not entity-escaped
	assert.Contains(t, string(body), "<![CDATA[")
	assert.True(t, strings.HasPrefix(string(body), xml.Header))
}

func TestEncodeIssueRequestPreconditions(t *testing.T) {
	codec := &Codec{Username: "vitta", Password: "secret"}

	tests := []struct {
		name    string
		mutate  func(*IssueParams)
		wantErr string
	}{
		{
			name:    "missing product code",
			mutate:  func(p *IssueParams) { p.ProductCode = "" },
			wantErr: "product code is required",
		},
		{
			name:    "missing insured name",
			mutate:  func(p *IssueParams) { p.InsuredName = "" },
			wantErr: "insured name is required",
		},
		{
			name:    "missing tax document",
			mutate:  func(p *IssueParams) { p.TaxDocument = "" },
			wantErr: "insured tax document is required",
		},
		{
			name:    "zero birth date",
			mutate:  func(p *IssueParams) { p.BirthDate = time.Time{} },
			wantErr: "insured birth date is required",
		},
		{
			name:    "zero coverage start date",
			mutate:  func(p *IssueParams) { p.StartDate = time.Time{} },
			wantErr: "coverage start date is required",
		},
		{
			name:    "zero coverage end date",
			mutate:  func(p *IssueParams) { p.EndDate = time.Time{} },
			wantErr: "coverage end date is required",
		},
		{
			name:    "empty partner operation id",
			mutate:  func(p *IssueParams) { p.PartnerOperationID = "" },
			wantErr: "partner operation id",
		},
		{
			name:    "partner operation id too long",
			mutate:  func(p *IssueParams) { p.PartnerOperationID = "123456789012345" },
			wantErr: "partner operation id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validIssueParams()
			tt.mutate(&p)

			_, err := codec.EncodeIssueRequest(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEncodeCancelRequest(t *testing.T) {
	codec := &Codec{Username: "vitta", Password: "secret"}

	body, err := codec.EncodeCancelRequest(CancelParams{
		OperationNumber: "OP-991",
		SalesChannel:    "77",
		InvoicePeriod:   "202601",
	})
	require.NoError(t, err)

	var env requestEnvelope
	require.NoError(t, xml.Unmarshal(body, &env))
	assert.Equal(t, "cancelPolicy", env.Operation.Name)

	var cr cancelRequest
	require.NoError(t, xml.Unmarshal([]byte(env.Operation.Parameters.Text), &cr))
	assert.Equal(t, "OP-991", cr.OperationNumber)
	assert.Equal(t, "77", cr.SalesChannel)
	assert.Equal(t, "202601", cr.InvoicePeriod)
}

func TestEncodeCancelRequestRequiresOperationNumber(t *testing.T) {
	codec := &Codec{}

	_, err := codec.EncodeCancelRequest(CancelParams{SalesChannel: "77"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation number is required")
}

func carrierResponse(operation, inner string) []byte {
	var env responseEnvelope
	env.Operations = []responseOperation{
		{Name: operation, Result: cdataField{Text: xml.Header + inner}},
	}
	body, _ := xml.Marshal(env)
	return append([]byte(xml.Header), body...)
}

func TestDecodeIssueResponseSuccess(t *testing.T) {
	raw := carrierResponse("issuePolicy",
		`<issueResult><returnCode>0</returnCode><returnMessage>OK</returnMessage><policyNumber>POL-1</policyNumber><certificateNumber>CERT-1</certificateNumber><operationNumber>OP-42</operationNumber></issueResult>`)

	res := DecodeIssueResponse(raw)

	assert.True(t, res.Success)
	assert.Equal(t, "0", res.ReturnCode)
	assert.Equal(t, "OK", res.ReturnMessage)
	assert.Equal(t, "POL-1", res.PolicyNumber)
	assert.Equal(t, "CERT-1", res.CertificateNumber)
	assert.Equal(t, "OP-42", res.OperationNumber)
	assert.Equal(t, string(raw), res.Raw)
}

func TestDecodeIssueResponseCarrierRejection(t *testing.T) {
	raw := carrierResponse("issuePolicy",
		`<issueResult><returnCode>105</returnCode><returnMessage>duplicated operation</returnMessage></issueResult>`)

	res := DecodeIssueResponse(raw)

	assert.False(t, res.Success)
	assert.Equal(t, "105", res.ReturnCode)
	assert.Equal(t, "duplicated operation", res.ReturnMessage)
	assert.Empty(t, res.PolicyNumber)
}

func TestDecodeIssueResponseGarbled(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "not xml", raw: []byte("502 Bad Gateway")},
		{name: "html error page", raw: []byte("<html><body>maintenance</body></html>")},
		{name: "empty body", raw: nil},
		{name: "wrong operation node", raw: carrierResponse("cancelPolicy", `<cancelResult><returnCode>0</returnCode></cancelResult>`)},
		{name: "garbled inner document", raw: carrierResponse("issuePolicy", `<issueResult><returnCode>`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DecodeIssueResponse(tt.raw)

			assert.False(t, res.Success)
			assert.Equal(t, "response node not found", res.ReturnMessage)
			assert.Equal(t, string(tt.raw), res.Raw)
		})
	}
}

func TestDecodeCancelResponse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		raw := carrierResponse("cancelPolicy",
			`<cancelResult><returnCode>0</returnCode><returnMessage>cancelled</returnMessage></cancelResult>`)

		res := DecodeCancelResponse(raw)
		assert.True(t, res.Success)
		assert.Equal(t, "cancelled", res.ReturnMessage)
	})

	t.Run("refusal", func(t *testing.T) {
		raw := carrierResponse("cancelPolicy",
			`<cancelResult><returnCode>231</returnCode><returnMessage>policy already cancelled</returnMessage></cancelResult>`)

		res := DecodeCancelResponse(raw)
		assert.False(t, res.Success)
		assert.Equal(t, "231", res.ReturnCode)
	})

	t.Run("missing operation node", func(t *testing.T) {
		raw := carrierResponse("issuePolicy", `<issueResult><returnCode>0</returnCode></issueResult>`)

		res := DecodeCancelResponse(raw)
		assert.False(t, res.Success)
		assert.Equal(t, "response node not found", res.ReturnMessage)
	})
}
