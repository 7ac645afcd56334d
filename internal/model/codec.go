package model

import (
	"encoding/json"
	"fmt"
)

// MarshalObligation encodes o as a JSON object carrying its "kind".
func MarshalObligation(o Obligation) ([]byte, error) {
	switch v := o.(type) {
	case Revolving:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			Revolving
		}{v.Kind(), v})
	case Installment:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			Installment
		}{v.Kind(), v})
	case Personal:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			Personal
		}{v.Kind(), v})
	case Planned:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			Planned
		}{v.Kind(), v})
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownKind, o)
}

// UnmarshalObligation decodes an object written by MarshalObligation. Records that name
// their variant under "type" with the short aliases accepted by ParseKind decode too.
func UnmarshalObligation(data []byte) (Obligation, error) {
	var head struct {
		Kind string `json:"kind"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decoding obligation: %w", err)
	}
	name := head.Kind
	if name == "" {
		name = head.Type
	}
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindRevolvingWallet, KindCreditCard:
		var v Revolving
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		v.Type = kind
		return v, nil
	case KindInstallment:
		var v Installment
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		return v, nil
	case KindPersonalLoan, KindPersonalLend:
		var v Personal
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		v.Type = kind
		return v, nil
	case KindPlanned:
		var v Planned
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
