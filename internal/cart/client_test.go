package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestClientGetCartForwardsSessionCookie(t *testing.T) {
	var capturedURL, capturedCookie string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if c, err := req.Cookie("cart"); err == nil {
			capturedCookie = c.Value
		}
		return jsonResponse(http.StatusOK, `{"token":"tok","item_count":3,"items":[
			{"key":"1:a","id":1,"sku":"TEE","quantity":2,"price":500,"final_line_price":1000},
			{"key":"9:b","id":9,"sku":"PAYPAL-FEE","quantity":35,"price":1,"final_line_price":35}
		]}`), nil
	})

	client, err := NewClient("http://shop.test/", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c, err := client.GetCart(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if capturedURL != "http://shop.test/cart.js" {
		t.Fatalf("unexpected url %q", capturedURL)
	}
	if capturedCookie != "sess-1" {
		t.Fatalf("expected session cookie, got %q", capturedCookie)
	}
	if len(c.Items) != 2 || c.Items[1].Quantity != 35 || c.Items[0].FinalLinePrice != 1000 {
		t.Fatalf("unexpected cart %+v", c)
	}
}

func TestClientAddLineItemPayload(t *testing.T) {
	var payload map[string][]map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/cart/add.js" || req.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"items":[]}`), nil
	})
	client, _ := NewClient("http://shop.test", WithHTTPClient(&http.Client{Transport: rt}))

	err := client.AddLineItem(context.Background(), "s", AddLineItemInput{
		VariantID:  9,
		Quantity:   70,
		Properties: map[string]any{"_fee": "paypal"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	items := payload["items"]
	if len(items) != 1 || items[0]["id"] != float64(9) || items[0]["quantity"] != float64(70) {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestClientMapsInventoryRejection(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnprocessableEntity,
			`{"status":422,"message":"Cart Error","description":"The product 'Fee' is already sold out."}`), nil
	})
	client, _ := NewClient("http://shop.test", WithHTTPClient(&http.Client{Transport: rt}))

	err := client.AddLineItem(context.Background(), "s", AddLineItemInput{VariantID: 9, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInventoryRejected) {
		t.Fatalf("expected inventory rejected, got %v", err)
	}
}

func TestClientTreatsAnyAddRejectionAsInventory(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnprocessableEntity, `{"status":422,"message":"Cart Error","description":"Variant limit reached"}`), nil
	})
	client, _ := NewClient("http://shop.test", WithHTTPClient(&http.Client{Transport: rt}))

	err := client.AddLineItem(context.Background(), "s", AddLineItemInput{VariantID: 9, Quantity: 500})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInventoryRejected) {
		t.Fatalf("expected inventory rejected, got %v", err)
	}
}

func TestClientMapsStorefrontQuantityWording(t *testing.T) {
	descriptions := []string{
		"You can't add more Fee to the cart.",
		"You can’t add more Fee to the cart.",
		"All 70 Fee are in your cart.",
		"Only 10 items in stock.",
		"The product 'Fee' is already sold out.",
	}
	for _, desc := range descriptions {
		body, _ := json.Marshal(map[string]any{"status": 422, "message": "Cart Error", "description": desc})
		rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnprocessableEntity, string(body)), nil
		})
		client, _ := NewClient("http://shop.test", WithHTTPClient(&http.Client{Transport: rt}))

		err := client.ChangeLineItem(context.Background(), "s", ChangeLineItemInput{Key: "9:a", Quantity: 105})
		if !pkgerrors.IsCode(err, pkgerrors.CodeInventoryRejected) {
			t.Fatalf("%q: expected inventory rejected, got %v", desc, err)
		}
	}
}

func TestClientMapsFailuresToStoreUnavailable(t *testing.T) {
	cases := map[string]roundTripFunc{
		"transport": func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		},
		"status": func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadGateway, `oops`), nil
		},
		"unprocessable without inventory reason": func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusUnprocessableEntity, `{"description":"invalid line"}`), nil
		},
		"decode": func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{not json`), nil
		},
	}
	for name, rt := range cases {
		client, _ := NewClient("http://shop.test", WithHTTPClient(&http.Client{Transport: rt}))
		_, err := client.GetCart(context.Background(), "s")
		if !pkgerrors.IsCode(err, pkgerrors.CodeStoreUnavailable) {
			t.Fatalf("%s: expected store unavailable, got %v", name, err)
		}
	}
}

func TestClientAgainstHTTPTestServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cart/change.js":
			var in ChangeLineItemInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in.Key != "9:b" || in.Quantity != 0 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"items":[]}`))
		case r.URL.Path == "/" && r.URL.Query().Get("sections") == "main-cart-items":
			_, _ = w.Write([]byte(`{"main-cart-items":"<div id=\"cart\"></div>"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithCookieName("cart_sid"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()
	if err := client.ChangeLineItem(ctx, "s", ChangeLineItemInput{Key: "9:b", Quantity: 0}); err != nil {
		t.Fatalf("change: %v", err)
	}
	html, err := client.RenderSection(ctx, "s", "main-cart-items")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if html != `<div id="cart"></div>` {
		t.Fatalf("unexpected markup %q", html)
	}
	if err := client.ChangeLineItem(ctx, "s", ChangeLineItemInput{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank key, got %v", err)
	}
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatal("expected error for blank base url")
	}
	if _, err := NewClient("not a url"); err == nil {
		t.Fatal("expected error for relative base url")
	}
}
