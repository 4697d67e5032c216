package utils_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/city-guide/api-go/utils"
)

func TestPeekBodyRestoresBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Enigma Cafe"}`))

	payload, truncated, err := utils.PeekBody(req, 8)
	if err != nil {
		t.Fatal(err)
	}
	if payload != `{"name":` || !truncated {
		t.Errorf("PeekBody() = %q, %v", payload, truncated)
	}

	rest, _ := io.ReadAll(req.Body)
	if string(rest) != `{"name":"Enigma Cafe"}` {
		t.Errorf("body after peek = %q", rest)
	}
}
