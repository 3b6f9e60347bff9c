package controllers

import (
	"net/http"

	"github.com/angelmondragon/packfinderz-cartfee/api/responses"
)

// PublicConfig is the handle the page reads before wiring its controls.
type PublicConfig struct {
	Rate             string   `json:"rate"`
	SKU              string   `json:"sku,omitempty"`
	VariantID        int64    `json:"variant_id,omitempty"`
	PreferenceKey    string   `json:"preference_key_prefix"`
	CheckboxIDs      []string `json:"checkbox_ids"`
	SectionID        string   `json:"section_id"`
	DebounceWindowMS int64    `json:"debounce_window_ms"`
	Events           []string `json:"events"`
}

func Config(pc PublicConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, pc)
	}
}
