package mercadopago

import (
	"encoding/json"
	"net/url"
)

// QueryResourceID returns the notified id as it appears in the query
// string, or "" when absent. The signature manifest is computed over
// this value only: the processor signs what it put in the URL, so an id
// that arrives solely in the JSON body contributes no manifest segment.
func QueryResourceID(query url.Values) string {
	if id := query.Get("id"); id != "" {
		return id
	}
	return query.Get("data.id")
}

// ResourceID resolves the preapproval id a webhook notification refers to.
//
// The processor's payloads are loosely structured: depending on the
// notification variant the id arrives as the query parameter "id" or
// "data.id", or inside the JSON body under data.id or a top-level id.
// The four locations are tried in that order and the first non-empty
// value wins.
func ResourceID(query url.Values, body []byte) (string, bool) {
	if id := query.Get("id"); id != "" {
		return id, true
	}
	if id := query.Get("data.id"); id != "" {
		return id, true
	}

	var payload struct {
		ID   string `json:"id"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}

	if payload.Data.ID != "" {
		return payload.Data.ID, true
	}
	if payload.ID != "" {
		return payload.ID, true
	}
	return "", false
}
