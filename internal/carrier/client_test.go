package carrier

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grupovitta/backoffice-api/internal/config"
)

func newTestClient(endpoint string) *Client {
	cfg := &config.CarrierConfig{
		Endpoint:       endpoint,
		Username:       "vitta",
		Password:       "secret",
		SalesChannel:   "77",
		TimeoutSeconds: 5,
	}
	return NewClient(cfg, zap.NewNop())
}

func TestIssuePolicySuccess(t *testing.T) {
	var gotBody requestEnvelope
	var gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, xml.NewDecoder(r.Body).Decode(&gotBody))
		w.Write(carrierResponse("issuePolicy",
			`<issueResult><returnCode>0</returnCode><returnMessage>OK</returnMessage><policyNumber>POL-7</policyNumber><certificateNumber>CERT-7</certificateNumber><operationNumber>OP-7</operationNumber></issueResult>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res := client.IssuePolicy(context.Background(), validIssueParams())

	assert.True(t, res.Success)
	assert.Equal(t, "POL-7", res.PolicyNumber)
	assert.Equal(t, "CERT-7", res.CertificateNumber)
	assert.Equal(t, "OP-7", res.OperationNumber)
	assert.NotEmpty(t, res.RawRequest)
	assert.NotEmpty(t, res.Raw)

	assert.Equal(t, "application/xml", gotContentType)

	// The envelope carried the configured credentials
	assert.Equal(t, "vitta", gotBody.Auth.Username)
	assert.Equal(t, "secret", gotBody.Auth.Password)
	assert.Equal(t, "issuePolicy", gotBody.Operation.Name)
}

func TestIssuePolicyCarrierError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(carrierResponse("issuePolicy",
			`<issueResult><returnCode>412</returnCode><returnMessage>invalid plan</returnMessage></issueResult>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res := client.IssuePolicy(context.Background(), validIssueParams())

	assert.False(t, res.Success)
	assert.Equal(t, "412", res.ReturnCode)
	assert.Equal(t, "invalid plan", res.ReturnMessage)
}

func TestIssuePolicyNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res := client.IssuePolicy(context.Background(), validIssueParams())

	assert.False(t, res.Success)
	assert.Contains(t, res.ReturnMessage, "carrier returned status 502")
	assert.NotEmpty(t, res.RawRequest)
}

func TestIssuePolicyTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.cfg.TimeoutSeconds = 0
	client.httpClient.Timeout = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := client.IssuePolicy(ctx, validIssueParams())

	assert.False(t, res.Success)
	assert.Contains(t, res.ReturnMessage, "carrier request failed")
}

func TestIssuePolicyInvalidParams(t *testing.T) {
	// Precondition failures never reach the network
	client := newTestClient("http://127.0.0.1:1")

	p := validIssueParams()
	p.TaxDocument = ""
	res := client.IssuePolicy(context.Background(), p)

	assert.False(t, res.Success)
	assert.Contains(t, res.ReturnMessage, "invalid issue request")
	assert.Empty(t, res.RawRequest)
}

func TestIssuePolicyUnconfiguredEndpoint(t *testing.T) {
	client := newTestClient("")

	res := client.IssuePolicy(context.Background(), validIssueParams())

	assert.False(t, res.Success)
	assert.Contains(t, res.ReturnMessage, "endpoint not configured")
}

func TestCancelPolicySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(carrierResponse("cancelPolicy",
			`<cancelResult><returnCode>0</returnCode><returnMessage>cancelled</returnMessage></cancelResult>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res := client.CancelPolicy(context.Background(), CancelParams{
		OperationNumber: "OP-7",
		SalesChannel:    "77",
		InvoicePeriod:   "202601",
	})

	assert.True(t, res.Success)
	assert.Equal(t, "cancelled", res.ReturnMessage)
}

func TestCancelPolicyRefusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(carrierResponse("cancelPolicy",
			`<cancelResult><returnCode>231</returnCode><returnMessage>policy already cancelled</returnMessage></cancelResult>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	res := client.CancelPolicy(context.Background(), CancelParams{OperationNumber: "OP-7"})

	assert.False(t, res.Success)
	assert.Equal(t, "231", res.ReturnCode)
}

func TestCancelPolicyMissingOperationNumber(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	res := client.CancelPolicy(context.Background(), CancelParams{})

	assert.False(t, res.Success)
	assert.Contains(t, res.ReturnMessage, "invalid cancel request")
}

func TestMissingCredentials(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	client.codec.Username = ""

	res := client.IssuePolicy(context.Background(), validIssueParams())

	assert.False(t, res.Success)
	assert.Contains(t, res.ReturnMessage, "credentials not configured")
}
