package admin

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kirinyoku/tix-storefront/internal/ordset"
)

var errNotObject = errors.New("legacy filters value is not an object")

// enabledInOrder reads the legacy {"city": true, ...} value and returns the
// truthy names in the order they appear in the document.
func enabledInOrder(raw string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	out := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if truthy(v) {
			out = ordset.Add(out, name)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return out, nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	}
	return true
}
