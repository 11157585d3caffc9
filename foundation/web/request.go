package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/blockforge/ledger/foundation/validate"
)

// Decode reads the body of an HTTP request looking for a JSON document.
// The body is decoded into the provided value and, when the value carries
// validate tags, checked against them.
func Decode(r *http.Request, val any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(val); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := validate.Check(val); err != nil {
		return err
	}

	return nil
}
