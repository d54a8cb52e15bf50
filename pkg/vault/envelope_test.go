package vault

import (
	"errors"
	"testing"
	"time"

	"github.com/xhedge/vault-middleware/pkg/network"
)

func testEnvelope(stage Stage) *Envelope {
	return &Envelope{
		Stage:    stage,
		Network:  network.Futurenet,
		Source:   "GABC",
		Sequence: 42,
		BaseFee:  100000,
		Invocation: Invocation{
			Contract: "CCONTRACT",
			Function: "deposit",
			Args: []ScVal{
				{Type: "address", Value: "GABC"},
				{Type: "i128", Value: "1000000000"},
			},
		},
		ValidUntil: time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC),
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := testEnvelope(StageUnsigned)

	blob, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := DecodeEnvelope(blob)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if decoded.Stage != StageUnsigned || decoded.Sequence != 42 {
		t.Errorf("round trip altered envelope: %+v", decoded)
	}
	if decoded.Invocation.Function != "deposit" || len(decoded.Invocation.Args) != 2 {
		t.Errorf("round trip altered invocation: %+v", decoded.Invocation)
	}
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	for _, blob := range []string{"not base64!!", "aGVsbG8=", ""} {
		if _, err := DecodeEnvelope(blob); !errors.Is(err, ErrMalformedEnvelope) {
			t.Errorf("DecodeEnvelope(%q): expected ErrMalformedEnvelope, got %v", blob, err)
		}
	}
}

func TestDecodeEnvelope_UnknownStage(t *testing.T) {
	env := testEnvelope("half-signed")
	blob, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := DecodeEnvelope(blob); !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope for unknown stage, got %v", err)
	}
}

func TestEnvelopeExpired(t *testing.T) {
	env := testEnvelope(StageUnsigned)

	if env.Expired(env.ValidUntil.Add(-time.Second)) {
		t.Error("envelope expired inside its validity window")
	}
	if !env.Expired(env.ValidUntil) {
		t.Error("envelope must expire exactly at the deadline")
	}
	if !env.Expired(env.ValidUntil.Add(time.Second)) {
		t.Error("envelope must stay expired after the deadline")
	}
}

func TestVerifySigned(t *testing.T) {
	signed := testEnvelope(StageSigned)
	signed.Signatures = []string{"c2ln"}
	blob, err := signed.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := VerifySigned(blob); err != nil {
		t.Fatalf("VerifySigned rejected a valid envelope: %v", err)
	}
}

func TestVerifySigned_WrongStage(t *testing.T) {
	blob, err := testEnvelope(StageAssembled).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := VerifySigned(blob); !errors.Is(err, ErrEnvelopeStage) {
		t.Fatalf("expected ErrEnvelopeStage, got %v", err)
	}
}

func TestVerifySigned_NoSignature(t *testing.T) {
	blob, err := testEnvelope(StageSigned).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := VerifySigned(blob); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}
