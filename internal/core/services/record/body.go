package record

import (
	"fmt"

	"github.com/iamNilotpal/mrecordlog/internal/core/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

// Body field numbers. Never renumber.
const (
	fieldKind      protowire.Number = 1
	fieldQueue     protowire.Number = 2
	fieldPosition  protowire.Number = 3
	fieldPayload   protowire.Number = 4
	fieldNext      protowire.Number = 5
	fieldWatermark protowire.Number = 6
)

// appendBody appends the protobuf wire encoding of rec to b.
func appendBody(b []byte, rec *domain.Record) []byte {
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(rec.Kind))
	b = protowire.AppendTag(b, fieldQueue, protowire.BytesType)
	b = protowire.AppendString(b, rec.Queue)

	switch rec.Kind {
	case domain.KindAppend:
		b = protowire.AppendTag(b, fieldPosition, protowire.VarintType)
		b = protowire.AppendVarint(b, rec.Position)
		for _, payload := range rec.Payloads {
			b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
			b = protowire.AppendBytes(b, payload)
		}
	case domain.KindTruncate:
		b = protowire.AppendTag(b, fieldPosition, protowire.VarintType)
		b = protowire.AppendVarint(b, rec.Position)
	case domain.KindTouch:
		b = protowire.AppendTag(b, fieldNext, protowire.VarintType)
		b = protowire.AppendVarint(b, rec.NextPosition)
		if rec.HasWatermark {
			b = protowire.AppendTag(b, fieldWatermark, protowire.VarintType)
			b = protowire.AppendVarint(b, rec.Watermark)
		}
	}

	return b
}

// bodySize returns the exact length appendBody produces.
func bodySize(rec *domain.Record) int {
	n := protowire.SizeTag(fieldKind) + protowire.SizeVarint(uint64(rec.Kind))
	n += protowire.SizeTag(fieldQueue) + protowire.SizeBytes(len(rec.Queue))

	switch rec.Kind {
	case domain.KindAppend:
		n += protowire.SizeTag(fieldPosition) + protowire.SizeVarint(rec.Position)
		for _, payload := range rec.Payloads {
			n += protowire.SizeTag(fieldPayload) + protowire.SizeBytes(len(payload))
		}
	case domain.KindTruncate:
		n += protowire.SizeTag(fieldPosition) + protowire.SizeVarint(rec.Position)
	case domain.KindTouch:
		n += protowire.SizeTag(fieldNext) + protowire.SizeVarint(rec.NextPosition)
		if rec.HasWatermark {
			n += protowire.SizeTag(fieldWatermark) + protowire.SizeVarint(rec.Watermark)
		}
	}

	return n
}

// parseBody decodes a record body. Payloads alias b.
// Unknown fields are skipped so newer writers can add fields.
func parseBody(b []byte) (domain.Record, error) {
	var rec domain.Record
	var hasQueue bool

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return rec, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			rec.Kind = domain.RecordKind(v)
		case num == fieldQueue && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			rec.Queue, hasQueue = string(v), true
		case num == fieldPosition && typ == protowire.VarintType:
			rec.Position, n = protowire.ConsumeVarint(b)
		case num == fieldPayload && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			rec.Payloads = append(rec.Payloads, v)
		case num == fieldNext && typ == protowire.VarintType:
			rec.NextPosition, n = protowire.ConsumeVarint(b)
		case num == fieldWatermark && typ == protowire.VarintType:
			rec.Watermark, n = protowire.ConsumeVarint(b)
			rec.HasWatermark = true
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}

		if n < 0 {
			return rec, protowire.ParseError(n)
		}
		b = b[n:]
	}

	if !rec.Kind.IsValid() {
		return rec, fmt.Errorf("unknown record kind %d", rec.Kind)
	}
	if !hasQueue {
		return rec, fmt.Errorf("%s record without queue", rec.Kind)
	}
	if rec.Kind == domain.KindAppend && len(rec.Payloads) == 0 {
		return rec, fmt.Errorf("append record without payload")
	}

	return rec, nil
}
