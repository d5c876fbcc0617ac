package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestReverseGeocode_Primary(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"display_name": "fallback name",
			"address": {
				"house_number": "12",
				"road": "Main St",
				"suburb": "Koramangala",
				"city": "Bengaluru",
				"state": "Karnataka",
				"postcode": "560034",
				"country": "India"
			}
		}`))
	}))
	defer primary.Close()

	c := NewClient(primary.URL, "", time.Second, zerolog.Nop())
	place, err := c.ReverseGeocode(context.Background(), 12.93, 77.62)
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if place != "12 Main St, Koramangala, Bengaluru, Karnataka, 560034, India" {
		t.Errorf("place = %q", place)
	}
}

func TestReverseGeocode_PrimaryDisplayNameFallback(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name": "Somewhere, Earth", "address": {}}`))
	}))
	defer primary.Close()

	c := NewClient(primary.URL, "", time.Second, zerolog.Nop())
	place, err := c.ReverseGeocode(context.Background(), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if place != "Somewhere, Earth" {
		t.Errorf("place = %q", place)
	}
}

func TestReverseGeocode_BackupAfterPrimaryFailure(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer primary.Close()
	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/reverse-geocode-client" {
			t.Errorf("path = %s", r.URL.Path)
		}
		// Duplicate locality/city collapses in the joined result.
		w.Write([]byte(`{"locality":"Bengaluru","city":"Bengaluru","principalSubdivision":"Karnataka","countryName":"India"}`))
	}))
	defer backup.Close()

	c := NewClient(primary.URL, backup.URL, time.Second, zerolog.Nop())
	place, err := c.ReverseGeocode(context.Background(), 12.93, 77.62)
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if place != "Bengaluru, Karnataka, India" {
		t.Errorf("place = %q", place)
	}
}

func TestReverseGeocode_NothingResolves(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	dead.Close() // connection refused

	c := NewClient(dead.URL, "", time.Second, zerolog.Nop())
	if place, err := c.ReverseGeocode(context.Background(), 1, 2); err == nil || place != "" {
		t.Errorf("got %q, %v; want empty with error", place, err)
	}

	// No endpoints configured at all.
	c2 := NewClient("", "", 0, zerolog.Nop())
	if _, err := c2.ReverseGeocode(context.Background(), 1, 2); err != ErrNoResult {
		t.Errorf("err = %v; want ErrNoResult", err)
	}
}

func TestJoinUniqueParts(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"a", "b"}, "a, b"},
		{[]string{" a ", "", "a", "b"}, "a, b"},
		{[]string{"", "  "}, ""},
	}
	for _, tc := range cases {
		if got := joinUniqueParts(tc.in...); got != tc.want {
			t.Errorf("joinUniqueParts(%v) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
