package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/pagination"
)

type eventBody struct {
	Type       string `json:"type" validate:"required,trigger"`
	Generation uint64 `json:"generation"`
}

type reasonBody struct {
	Reason string `json:"reason" validate:"omitempty,oneof=cancel_button overlay escape"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	var body eventBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"cart_updated","generation":3}`))
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "cart_updated", body.Type)
	assert.EqualValues(t, 3, body.Generation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"teleport"}`))
	err := DecodeJSONBody(req, &eventBody{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"type": "is not a known trigger"}, typed.Details())
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"page_init","extra":1}`))
	err := DecodeJSONBody(req, &eventBody{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRequiresBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &eventBody{}), pkgerrors.CodeValidation))
}

func TestDecodeOptionalJSONBodyAcceptsEmpty(t *testing.T) {
	var body reasonBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeOptionalJSONBody(req, &body))
	assert.Empty(t, body.Reason)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"sideways"}`))
	err := DecodeOptionalJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"reason": "must be one of cancel_button overlay escape"}, typed.Details())
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25", nil)
	v, err := ParseQueryInt(req, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	v, err = ParseQueryInt(req, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	req = httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	_, err = ParseQueryInt(req, "limit", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	_, err = ParseQueryInt(req, "limit", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePageQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&cursor=+abc+", nil)
	page, err := ParsePageQuery(req)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, "abc", page.Cursor)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	page, err = ParsePageQuery(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, page.Limit)
	assert.Empty(t, page.Cursor)

	req = httptest.NewRequest(http.MethodGet, "/?cursor="+strings.Repeat("a", maxCursorLen+1), nil)
	_, err = ParsePageQuery(req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodGet, "/?limit=0", nil)
	_, err = ParsePageQuery(req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
