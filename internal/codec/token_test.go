package codec

import (
	"errors"
	"testing"
	"time"

	"veriscan/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProductID = "3f1c2b7e-9a4d-4c1e-8b2a-6d5f0e9c1a27"

func sampleRecord() model.ProductRecord {
	return model.ProductRecord{
		UniqueProductID:   testProductID,
		Name:              "Aurora Watch",
		Description:       "Steel chronograph",
		Category:          model.CategoryLuxuryGoods,
		BatchNumber:       "BAT-482913",
		SerialNumber:      "SL-55120",
		ManufacturingDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:        time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC),
		OwnerAddress:      model.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
	}
}

func TestEncodeToken_CanonicalOrder(t *testing.T) {
	tok := TokenFor(sampleRecord(), "Acme Corp", model.Receipt{TxHash: "0xabc"})

	payload, err := EncodeToken(tok)

	require.NoError(t, err)
	assert.Equal(t,
		`{"uniqueProductId":"`+testProductID+`","manufacturerName":"Acme Corp","batchNumber":"BAT-482913",`+
			`"productName":"Aurora Watch","manufacturingDate":"2024-01-01","expiryDate":"2029-01-01","submissionReceipt":"0xabc"}`,
		payload)
}

func TestEncodeToken_NoExpiryKeepsKey(t *testing.T) {
	record := sampleRecord()
	record.ExpiryDate = time.Time{}

	payload, err := EncodeToken(TokenFor(record, "Acme Corp", model.Receipt{TxHash: "0xabc"}))

	require.NoError(t, err)
	assert.Contains(t, payload, `"expiryDate":""`)
}

func TestEncodeToken_DoesNotEscapeHTML(t *testing.T) {
	record := sampleRecord()
	record.Name = "Salt & Pepper <Mill>"

	payload, err := EncodeToken(TokenFor(record, "Acme", model.Receipt{TxHash: "0x1"}))

	require.NoError(t, err)
	assert.Contains(t, payload, "Salt & Pepper <Mill>")
}

func TestToken_RoundTrip(t *testing.T) {
	noExpiry := sampleRecord()
	noExpiry.ExpiryDate = time.Time{}

	unicode := sampleRecord()
	unicode.Name = "Café ☕ \"Spécial\""
	unicode.BatchNumber = ""

	tests := []struct {
		name         string
		record       model.ProductRecord
		manufacturer string
		receipt      model.Receipt
	}{
		{name: "full record", record: sampleRecord(), manufacturer: "Acme Corp", receipt: model.Receipt{TxHash: "0xdeadbeef"}},
		{name: "no expiry", record: noExpiry, manufacturer: "Acme Corp", receipt: model.Receipt{TxHash: "0x01"}},
		{name: "unicode and empty fields", record: unicode, manufacturer: "Ünïcode GmbH", receipt: model.Receipt{TxHash: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := TokenFor(tt.record, tt.manufacturer, tt.receipt)

			payload, err := EncodeToken(want)
			require.NoError(t, err)

			got, err := DecodeToken(payload)
			require.NoError(t, err)

			assert.Equal(t, want, got)
			assert.Equal(t, tt.record.UniqueProductID, got.UniqueProductID)
			assert.Equal(t, tt.record.Name, got.ProductName)
			assert.Equal(t, tt.record.BatchNumber, got.BatchNumber)
			assert.True(t, tt.record.ManufacturingDate.Equal(got.ManufacturingDate))
			assert.True(t, tt.record.ExpiryDate.Equal(got.ExpiryDate))
			assert.Equal(t, tt.receipt.TxHash, got.SubmissionReceipt)
		})
	}
}

func TestDecodeToken_Errors(t *testing.T) {
	valid, err := EncodeToken(TokenFor(sampleRecord(), "Acme Corp", model.Receipt{TxHash: "0xabc"}))
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "empty", payload: "", wantErr: model.ErrMalformedPayload},
		{name: "not json", payload: "hello world", wantErr: model.ErrMalformedPayload},
		{name: "truncated", payload: valid[:len(valid)/2], wantErr: model.ErrMalformedPayload},
		{name: "json array", payload: `["a","b"]`, wantErr: model.ErrMalformedPayload},
		{
			name:    "missing receipt",
			payload: `{"uniqueProductId":"` + testProductID + `","manufacturerName":"A","batchNumber":"B","productName":"P","manufacturingDate":"2024-01-01","expiryDate":""}`,
			wantErr: model.ErrMissingTokenField,
		},
		{
			name:    "missing product id",
			payload: `{"manufacturerName":"A","batchNumber":"B","productName":"P","manufacturingDate":"2024-01-01","expiryDate":"","submissionReceipt":"0x1"}`,
			wantErr: model.ErrMissingTokenField,
		},
		{
			name:    "wrong field type",
			payload: `{"uniqueProductId":"` + testProductID + `","manufacturerName":7,"batchNumber":"B","productName":"P","manufacturingDate":"2024-01-01","expiryDate":"","submissionReceipt":"0x1"}`,
			wantErr: model.ErrMalformedPayload,
		},
		{
			name:    "bad date",
			payload: `{"uniqueProductId":"` + testProductID + `","manufacturerName":"A","batchNumber":"B","productName":"P","manufacturingDate":"01/01/2024","expiryDate":"","submissionReceipt":"0x1"}`,
			wantErr: model.ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeToken(tt.payload)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, model.KindDecode, model.KindOf(err))
		})
	}
}

func TestDecodeToken_AnyProductID(t *testing.T) {
	for _, id := range []string{"FAKE-0001", "12345", "not-a-uuid"} {
		t.Run(id, func(t *testing.T) {
			payload := `{"uniqueProductId":"` + id + `","manufacturerName":"A","batchNumber":"B","productName":"P",` +
				`"manufacturingDate":"2024-01-01","expiryDate":"","submissionReceipt":"0x1"}`

			token, err := DecodeToken(payload)

			require.NoError(t, err)
			assert.Equal(t, id, token.UniqueProductID)
		})
	}
}

func TestDecodeToken_IgnoresExtraFields(t *testing.T) {
	payload := `{"uniqueProductId":"` + testProductID + `","manufacturerName":"A","batchNumber":"B","productName":"P",` +
		`"manufacturingDate":"2024-01-01","expiryDate":"","submissionReceipt":"0x1","version":2,"extra":{"nested":true}}`

	tok, err := DecodeToken(payload)

	require.NoError(t, err)
	assert.Equal(t, testProductID, tok.UniqueProductID)
	assert.Equal(t, "0x1", tok.SubmissionReceipt)
	assert.True(t, tok.ExpiryDate.IsZero())
}

func TestDecodeToken_LegacyTransactionHash(t *testing.T) {
	payload := `{"uniqueProductId":"` + testProductID + `","manufacturerName":"A","batchNumber":"B","productName":"P",` +
		`"manufacturingDate":"2024-01-01T00:00:00.000Z","expiryDate":"2025-06-30T00:00:00.000Z","transactionHash":"0xfeed"}`

	tok, err := DecodeToken(payload)

	require.NoError(t, err)
	assert.Equal(t, "0xfeed", tok.SubmissionReceipt)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), tok.ExpiryDate)
}

func TestDecodeToken_NullFieldsAreEmpty(t *testing.T) {
	payload := `{"uniqueProductId":"` + testProductID + `","manufacturerName":null,"batchNumber":"B","productName":"P",` +
		`"manufacturingDate":"2024-01-01","expiryDate":null,"submissionReceipt":"0x1"}`

	tok, err := DecodeToken(payload)

	require.NoError(t, err)
	assert.Empty(t, tok.ManufacturerName)
	assert.True(t, tok.ExpiryDate.IsZero())
}
