package routepath

import "strings"

// QueryPair is one decoded entry of a query string. Flags written without
// "=value" have an empty Value and HasValue false.
type QueryPair struct {
	Name     string
	Value    string
	HasValue bool
}

// ParseQuery splits an "&"-delimited query (without the leading "?") into
// decoded pairs, in order. Empty pieces such as the middle of "a&&b" are
// skipped. A nil codec means DefaultCodec.
func ParseQuery(query string, codec Codec) ([]QueryPair, error) {
	if codec == nil {
		codec = DefaultCodec
	}
	if query == "" {
		return nil, nil
	}

	pieces := strings.Split(query, "&")
	pairs := make([]QueryPair, 0, len(pieces))
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		rawName, rawValue, hasValue := strings.Cut(piece, "=")
		name, err := codec.Decode(rawName)
		if err != nil {
			return nil, err
		}
		value := ""
		if hasValue {
			if value, err = codec.Decode(rawValue); err != nil {
				return nil, err
			}
		}
		pairs = append(pairs, QueryPair{Name: name, Value: value, HasValue: hasValue})
	}
	return pairs, nil
}
