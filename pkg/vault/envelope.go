package vault

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xhedge/vault-middleware/pkg/network"
)

// Stage tracks how far an envelope has progressed through the pipeline.
// Stages only ever advance unsigned -> assembled -> signed; decoding enforces
// the invariants so a stage can never be skipped by replaying an old blob.
type Stage string

const (
	StageUnsigned  Stage = "unsigned"
	StageAssembled Stage = "assembled"
	StageSigned    Stage = "signed"
)

var (
	ErrMalformedEnvelope = errors.New("malformed transaction envelope")
	ErrEnvelopeStage     = errors.New("envelope is at the wrong pipeline stage")
	ErrEnvelopeExpired   = errors.New("transaction envelope expired")
	ErrMissingSignature  = errors.New("signed envelope carries no signature")
)

// ScVal is one typed contract-call argument.
type ScVal struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Invocation names the contract function being called and its arguments.
type Invocation struct {
	Contract string  `json:"contract"`
	Function string  `json:"function"`
	Args     []ScVal `json:"args"`
}

// Envelope is the wire representation of an in-flight transaction. It is
// serialized as base64-encoded JSON; external parties (the signer bridge, the
// node) treat the blob as opaque.
type Envelope struct {
	Stage           Stage      `json:"stage"`
	Network         network.ID `json:"network"`
	Source          string     `json:"source"`
	Sequence        int64      `json:"sequence"`
	BaseFee         int64      `json:"baseFee"`
	ResourceFee     int64      `json:"resourceFee,omitempty"`
	TransactionData string     `json:"transactionData,omitempty"`
	Invocation      Invocation `json:"invocation"`
	ValidUntil      time.Time  `json:"validUntil"`
	Signatures      []string   `json:"signatures,omitempty"`
}

// Encode serializes the envelope into its opaque wire form.
func (e *Envelope) Encode() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeEnvelope parses the wire form back into an envelope. Any structural
// problem maps to ErrMalformedEnvelope so callers have a single sentinel.
func DecodeEnvelope(blob string) (*Envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	switch env.Stage {
	case StageUnsigned, StageAssembled, StageSigned:
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", ErrMalformedEnvelope, env.Stage)
	}
	if env.Invocation.Contract == "" || env.Invocation.Function == "" {
		return nil, fmt.Errorf("%w: missing invocation target", ErrMalformedEnvelope)
	}
	return &env, nil
}

// Expired reports whether the validity window has closed at the given instant.
func (e *Envelope) Expired(now time.Time) bool {
	return !now.Before(e.ValidUntil)
}

// requireStage returns ErrEnvelopeStage unless the envelope is exactly at the
// expected stage.
func (e *Envelope) requireStage(want Stage) error {
	if e.Stage != want {
		return fmt.Errorf("%w: have %q, want %q", ErrEnvelopeStage, e.Stage, want)
	}
	return nil
}

// VerifySigned checks that a blob handed back by a signer is a decodable
// envelope at the signed stage carrying at least one signature. It is the
// acceptance gate between signing and submission.
func VerifySigned(blob string) error {
	env, err := DecodeEnvelope(blob)
	if err != nil {
		return err
	}
	if err := env.requireStage(StageSigned); err != nil {
		return err
	}
	if len(env.Signatures) == 0 {
		return ErrMissingSignature
	}
	return nil
}
