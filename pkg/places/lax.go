package places

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// LaxFloat decodes a JSON number, quoted number, or null. Anything
// non-numeric decodes to zero instead of failing the record.
type LaxFloat float64

func (f *LaxFloat) UnmarshalJSON(b []byte) error {
	*f = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*f = LaxFloat(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*f = LaxFloat(v)
	}
	return nil
}

// LaxInt decodes like LaxFloat but truncates to an integer.
type LaxInt int

func (i *LaxInt) UnmarshalJSON(b []byte) error {
	var f LaxFloat
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	*i = LaxInt(f)
	return nil
}
