package wire

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrUnknownKind is returned when encoding a request without payload.
var ErrUnknownKind = errors.New("request kind is unknown")

// A Request is the envelope sent to a game instance. Payload is the encoded
// one-of member selected by Kind.
type Request struct {
	ID      uint32
	Kind    Kind
	Payload []byte
}

// A Response is the envelope received from a game instance.
type Response struct {
	ID      uint32
	Kind    Kind
	Payload []byte
	Errors  []string
	Status  Status
}

// Marshal encodes the request.
func (r *Request) Marshal() ([]byte, error) {
	if !r.Kind.Valid() {
		return nil, errors.Wrapf(ErrUnknownKind, "kind %s", r.Kind)
	}

	var b []byte
	b = protowire.AppendTag(b, r.Kind.field(), protowire.BytesType)
	b = protowire.AppendBytes(b, r.Payload)

	if r.ID != 0 {
		b = protowire.AppendTag(b, fieldID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.ID))
	}

	return b, nil
}

// Marshal encodes the response.
func (r *Response) Marshal() ([]byte, error) {
	var b []byte

	if r.Kind.Valid() {
		b = protowire.AppendTag(b, r.Kind.field(), protowire.BytesType)
		b = protowire.AppendBytes(b, r.Payload)
	}

	if r.ID != 0 {
		b = protowire.AppendTag(b, fieldID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.ID))
	}

	for _, e := range r.Errors {
		b = protowire.AppendTag(b, fieldError, protowire.BytesType)
		b = protowire.AppendString(b, e)
	}

	if r.Status != StatusNone {
		b = protowire.AppendTag(b, fieldStatus, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Status))
	}

	return b, nil
}

// UnmarshalRequest decodes a request. A request without a populated member
// has the Unknown kind.
func UnmarshalRequest(b []byte) (*Request, error) {
	r := &Request{}

	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if kind, found := fieldKinds[num]; found && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			r.Kind = kind
			r.Payload = append([]byte{}, v...)

			return n, nil
		}

		if num == fieldID && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			r.ID = uint32(v)

			return n, nil
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decoding request")
	}

	return r, nil
}

// UnmarshalResponse decodes a response. A response without a populated
// member has the Unknown kind.
func UnmarshalResponse(b []byte) (*Response, error) {
	r := &Response{}

	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if kind, found := fieldKinds[num]; found && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			r.Kind = kind
			r.Payload = append([]byte{}, v...)

			return n, nil
		}

		switch {
		case num == fieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.ID = uint32(v)

			return n, nil
		case num == fieldError && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n >= 0 {
				r.Errors = append(r.Errors, v)
			}

			return n, nil
		case num == fieldStatus && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Status = Status(v)

			return n, nil
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}

	return r, nil
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walk calls f for every field of a message. f consumes the value of the
// field and returns the number of bytes consumed, negative on error.
func walk(b []byte, f fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := f(num, typ, b)
		if err != nil {
			return err
		}

		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}

	return nil
}
