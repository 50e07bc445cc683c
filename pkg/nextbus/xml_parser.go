package nextbus

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"

	"golang.org/x/net/html/charset"
)

func ParseXML(payload []byte) (*Body, error) {
	d := xml.NewDecoder(bytes.NewReader(payload))
	d.CharsetReader = charset.NewReaderLabel

	var body Body
	if err := d.Decode(&body); err != nil {
		return nil, err
	}

	if body.Error != nil {
		return &body, errors.New(strings.TrimSpace(body.Error.Message))
	}

	return &body, nil
}

// ValidatePayload rejects documents the cache should not keep, including the
// <Error> body the feed serves with a 200 when it is throttling or down.
func ValidatePayload(payload []byte) error {
	_, err := ParseXML(payload)
	return err
}
