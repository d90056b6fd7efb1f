package queries

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// tagged is the wire form of a query: the variant name under "kind" and the
// payload under "content". Root has no content.
type tagged struct {
	Kind    string `json:"kind"              yaml:"kind"`
	Content any    `json:"content,omitempty" yaml:"content,omitempty"`
}

// accessContent is the payload of a tagged Access.
type accessContent struct {
	Base  tagged `json:"base"  yaml:"base"`
	Field string `json:"field" yaml:"field"`
}

// toTagged builds the wire form of q. A nil query anywhere in the tree is
// rejected with ErrInvalidEncoding; path locates it.
func toTagged(q Query, path string) (tagged, error) {
	q, ok := resolve(q)
	if !ok {
		return tagged{}, invalidf(path, "missing query")
	}

	t := tagged{Kind: q.Kind().String()}
	contentPath := path + ".content"

	switch n := q.(type) {
	case Prev:
		inner, err := toTagged(n.Query, contentPath)
		if err != nil {
			return tagged{}, err
		}

		t.Content = inner
	case Agent:
		t.Content = n.Name
	case Access:
		base, err := toTagged(n.Base, contentPath+".base")
		if err != nil {
			return tagged{}, err
		}

		t.Content = accessContent{Base: base, Field: n.Field}
	case Base:
		t.Content = n.Name
	case Tuple:
		items := make([]tagged, len(n.Items))

		for i, item := range n.Items {
			tt, err := toTagged(item, fmt.Sprintf("%s[%d]", contentPath, i))
			if err != nil {
				return tagged{}, err
			}

			items[i] = tt
		}

		t.Content = items
	}

	return t, nil
}

func marshalJSON(q Query) ([]byte, error) {
	t, err := toTagged(q, "$")
	if err != nil {
		return nil, err
	}

	return json.Marshal(t)
}

// MarshalJSON implements json.Marshaler.
func (q Prev) MarshalJSON() ([]byte, error) { return marshalJSON(q) }

// MarshalJSON implements json.Marshaler.
func (q Root) MarshalJSON() ([]byte, error) { return marshalJSON(q) }

// MarshalJSON implements json.Marshaler.
func (q Agent) MarshalJSON() ([]byte, error) { return marshalJSON(q) }

// MarshalJSON implements json.Marshaler.
func (q Access) MarshalJSON() ([]byte, error) { return marshalJSON(q) }

// MarshalJSON implements json.Marshaler.
func (q Base) MarshalJSON() ([]byte, error) { return marshalJSON(q) }

// MarshalJSON implements json.Marshaler.
func (q Tuple) MarshalJSON() ([]byte, error) { return marshalJSON(q) }

// EncodeJSON returns the tagged JSON encoding of q. A nil query or sub-query
// fails with ErrInvalidEncoding.
func EncodeJSON(q Query) ([]byte, error) {
	return marshalJSON(q)
}

// EncodeYAML returns the tagged YAML encoding of q. It has the same shape as
// the JSON encoding.
func EncodeYAML(q Query) ([]byte, error) {
	t, err := toTagged(q, "$")
	if err != nil {
		return nil, err
	}

	return yaml.Marshal(t)
}

// DecodeJSON decodes a tagged JSON tree produced by EncodeJSON.
func DecodeJSON(data []byte) (Query, error) { //nolint:ireturn
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	return fromTagged(v, "$")
}

// DecodeYAML decodes a tagged YAML tree produced by EncodeYAML.
func DecodeYAML(data []byte) (Query, error) { //nolint:ireturn
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}

	return fromTagged(v, "$")
}

// fromTagged rebuilds a query from the generic value produced by json or
// yaml unmarshalling into any. path locates v in the document for errors.
func fromTagged(v any, path string) (Query, error) { //nolint:ireturn
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalidf(path, "expected object, got %s", describe(v))
	}

	kindName, ok := obj["kind"].(string)
	if !ok {
		return nil, invalidf(path, "missing or non-string \"kind\"")
	}

	kind, ok := kindByName[kindName]
	if !ok {
		return nil, invalidf(path, "unknown kind %q", kindName)
	}

	content, hasContent := obj["content"]
	contentPath := path + ".content"

	switch kind {
	case KindRoot:
		if hasContent && content != nil {
			return nil, invalidf(contentPath, "Root takes no content")
		}

		return Root{}, nil

	case KindAgent, KindBase:
		name, ok := content.(string)
		if !ok {
			return nil, invalidf(contentPath, "expected string, got %s", describe(content))
		}

		if kind == KindAgent {
			return Agent{Name: name}, nil
		}

		return Base{Name: name}, nil

	case KindPrev:
		inner, err := fromTagged(content, contentPath)
		if err != nil {
			return nil, err
		}

		return Prev{Query: inner}, nil

	case KindAccess:
		fields, ok := content.(map[string]any)
		if !ok {
			return nil, invalidf(contentPath, "expected object, got %s", describe(content))
		}

		field, ok := fields["field"].(string)
		if !ok {
			return nil, invalidf(contentPath+".field", "expected string, got %s", describe(fields["field"]))
		}

		base, err := fromTagged(fields["base"], contentPath+".base")
		if err != nil {
			return nil, err
		}

		return Access{Base: base, Field: field}, nil

	case KindTuple:
		items, ok := content.([]any)
		if !ok {
			return nil, invalidf(contentPath, "expected array, got %s", describe(content))
		}

		out := make([]Query, len(items))
		for i, item := range items {
			q, err := fromTagged(item, fmt.Sprintf("%s[%d]", contentPath, i))
			if err != nil {
				return nil, err
			}

			out[i] = q
		}

		return Tuple{Items: out}, nil
	}

	return nil, invalidf(path, "unknown kind %q", kindName)
}

func invalidf(path, format string, args ...any) error {
	return fmt.Errorf("%w at %s: %s", ErrInvalidEncoding, path, fmt.Sprintf(format, args...))
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
