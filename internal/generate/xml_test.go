package generate

import (
	"encoding/xml"
	"errors"
	"io"
)

func checkWellFormed(r io.Reader) error {
	dec := xml.NewDecoder(r)
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
