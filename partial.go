package resulty

// DecodePartial validates a structurally-incomplete raw value against target,
// producing a best-effort host value for streaming delivery. It follows the
// same dispatch as Decode with relaxed completeness:
//
//   - missing class fields decode to Unset instead of failing;
//   - lists and maps decode whatever elements are present, recursing with the
//     same relaxed rules so an in-progress trailing element decodes partially;
//   - an enum string outside the declared set and an untagged union value
//     decode to Unset, since the underlying value may still be arriving;
//   - literal and base64 payloads that do not parse yet decode to Unset.
//
// Structural mismatches (a raw bool where a class was expected) still fail
// with DecodeError: more bytes cannot make a wrong kind right. Feeding a
// complete raw value through DecodePartial yields the same result as Decode,
// provided its union values carry Checked tags and its enum strings are
// declared; untagged unions and unknown enum strings stay Unset even when
// the input is complete, since relaxed decoding cannot tell them from
// still-arriving data.
func DecodePartial(raw RawValue, target Type, schema Schema) (HostValue, error) {
	d := &decoder{schema: schema, relaxed: true}
	return d.decode(raw, target)
}
