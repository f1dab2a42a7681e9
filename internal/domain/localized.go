package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// LocalizedText holds one string per language code ("en", "ar", ...).
// A plain JSON string decodes into the "default" entry and encodes back as a
// plain string, so stored entries keep the shape they were written in.
type LocalizedText map[string]string

const defaultLang = "default"

func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	if plain, ok := t[defaultLang]; ok && len(t) == 1 {
		return json.Marshal(plain)
	}
	return json.Marshal(map[string]string(t))
}

func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*t = LocalizedText{defaultLang: plain}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = m
	return nil
}

// In returns the text for lang, falling back to English, the default entry,
// then any non-empty value.
func (t LocalizedText) In(lang string) string {
	for _, key := range []string{strings.ToLower(lang), "en", defaultLang} {
		if v := t[key]; v != "" {
			return v
		}
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}
