package seoulapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/seoul-parking-map/pkg/httpclient"
)

const emptyFixture = `{"SearchParkingInfoRealtime":{"RESULT":{"CODE":"INFO-000"},"row":[]}}`

const rowsFixture = `{
  "SearchParkingInfoRealtime": {
    "list_total_count": 2,
    "RESULT": {"CODE": "INFO-000", "MESSAGE": "정상 처리되었습니다"},
    "row": [
      {
        "PARKING_CODE": "1033754",
        "PARKING_NAME": "개포동 공영주차장(구)",
        "ADDR": "강남구 개포동 12-3",
        "PARKING_TYPE": "NW",
        "PARKING_TYPE_NM": "노외 주차장",
        "TEL": "02-2176-0000",
        "QUE_STATUS": "1",
        "QUE_STATUS_NM": "현재~20분이내 연계데이터 존재(현재 주차대수 표현)",
        "CAPACITY": 52.0,
        "CUR_PARKING": "17",
        "CUR_PARKING_TIME": "2024-05-20 14:03:11",
        "PAY_YN": "Y",
        "PAY_NM": "유료",
        "RATES": 400.0,
        "TIME_RATE": 5.0,
        "LAT": 37.48337,
        "LNG": "127.05621"
      },
      {
        "PARKING_CODE": 1010089,
        "PARKING_NAME": "대치2동 공영주차장",
        "ADDR": "강남구 대치동 1000",
        "CAPACITY": "",
        "CUR_PARKING": null,
        "PAY_YN": "N",
        "LAT": 0,
        "LNG": 0
      }
    ]
  }
}`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New("testkey",
		WithBaseURL(srv.URL),
		WithHTTPClient(httpclient.NewRestyClient(2*time.Second)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestBuildURLIncludesDistrictOnce(t *testing.T) {
	c, err := New("7a79575a4a6c706e31384a62724a69")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, district := range []string{"강남구", "Gangnam gu", "a/b", "중구?x=1#y"} {
		raw, err := c.BuildURL(district)
		if err != nil {
			t.Fatalf("BuildURL(%q): %v", district, err)
		}
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if u.Scheme != "http" || u.Host != "openapi.seoul.go.kr:8088" {
			t.Fatalf("unexpected host in %q", raw)
		}
		if u.RawQuery != "" || u.Fragment != "" {
			t.Fatalf("district leaked into query/fragment: %q", raw)
		}
		if !strings.Contains(u.Path, "/SearchParkingInfoRealtime/1/10/") {
			t.Fatalf("missing service window in %q", u.Path)
		}
		if n := strings.Count(u.Path, district); n != 1 {
			t.Fatalf("district %q appears %d times in %q", district, n, u.Path)
		}
		segments := strings.Split(u.EscapedPath(), "/")
		last, err := url.PathUnescape(segments[len(segments)-1])
		if err != nil || last != district {
			t.Fatalf("last segment = %q (%v), want %q", last, err, district)
		}
	}
}

func TestBuildURLRejectsBlankDistrict(t *testing.T) {
	c, _ := New("k")
	if _, err := c.BuildURL("   "); !errors.Is(err, ErrEmptyDistrict) {
		t.Fatalf("expected ErrEmptyDistrict, got %v", err)
	}
}

func TestNewValidatesInput(t *testing.T) {
	if _, err := New(" "); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := New("k", WithPage(10, 1)); err == nil {
		t.Fatalf("expected error for inverted page window")
	}
}

func TestFetchDecodesEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/testkey/json/SearchParkingInfoRealtime/1/10/강남구" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json;charset=UTF-8")
		_, _ = w.Write([]byte(emptyFixture))
	}))
	defer srv.Close()

	data, err := newTestClient(t, srv).Fetch(context.Background(), "강남구")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if data.Code() != CodeOK {
		t.Fatalf("code = %q", data.Code())
	}
	if rows := data.Rows(); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestFetchDecodesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rowsFixture))
	}))
	defer srv.Close()

	data, err := newTestClient(t, srv).Fetch(context.Background(), "강남구")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if data.SearchParkingInfoRealtime.ListTotalCount != 2 {
		t.Fatalf("list_total_count = %d", data.SearchParkingInfoRealtime.ListTotalCount)
	}

	lots := data.Lots()
	if len(lots) != 2 {
		t.Fatalf("expected 2 lots, got %d", len(lots))
	}
	first := lots[0]
	if first.Code != "1033754" || first.Name != "개포동 공영주차장(구)" {
		t.Fatalf("unexpected first lot %#v", first)
	}
	if first.Capacity != 52 || first.Occupied != 17 || first.Available() != 35 {
		t.Fatalf("unexpected occupancy %#v", first)
	}
	if !first.Paid || first.Type != "노외 주차장" {
		t.Fatalf("unexpected flags %#v", first)
	}
	if first.Position.Lat != 37.48337 || first.Position.Lng != 127.05621 {
		t.Fatalf("unexpected position %#v", first.Position)
	}

	second := lots[1]
	if second.Code != "1010089" {
		t.Fatalf("numeric code not normalised: %q", second.Code)
	}
	if second.Capacity != 0 || second.Occupied != 0 || second.Position.Valid() {
		t.Fatalf("unexpected second lot %#v", second)
	}
}

func TestFetchReportsMalformedJSONAsDecodeFailure(t *testing.T) {
	for name, body := range map[string]string{
		"truncated":   `{"SearchParkingInfoRealtime":{"row":[`,
		"wrong shape": `{"somethingElse":true}`,
		"bad number":  `{"SearchParkingInfoRealtime":{"RESULT":{"CODE":"INFO-000"},"row":[{"LAT":"north"}]}}`,
		"array":       `[1,2,3]`,
		"empty":       ``,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			data, err := newTestClient(t, srv).Fetch(context.Background(), "강남구")
			if !errors.Is(err, ErrFetchFailed) {
				t.Fatalf("expected ErrFetchFailed, got %v", err)
			}
			if KindOf(err) != KindDecode {
				t.Fatalf("kind = %q", KindOf(err))
			}
			if data.SearchParkingInfoRealtime != nil || data.Result != nil {
				t.Fatalf("expected zero Data on decode failure, got %#v", data)
			}
		})
	}
}

func TestFetchServerErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html><head><title>500 Internal Server Error</title></head><body>oops</body></html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Fetch(context.Background(), "강남구")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindStatus || fe.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected error %#v", err)
	}
	if !strings.Contains(err.Error(), "500 Internal Server Error") {
		t.Fatalf("expected html title in error, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", hits.Load())
	}
}

func TestFetchNoDataIsDistinct(t *testing.T) {
	for name, body := range map[string]string{
		"bare json":  `{"RESULT":{"CODE":"INFO-200","MESSAGE":"해당하는 데이터가 없습니다."}}`,
		"envelope":   `{"SearchParkingInfoRealtime":{"RESULT":{"CODE":"INFO-200","MESSAGE":"해당하는 데이터가 없습니다."}}}`,
		"xml result": `<?xml version="1.0" encoding="UTF-8"?><RESULT><CODE>INFO-200</CODE><MESSAGE>해당하는 데이터가 없습니다.</MESSAGE></RESULT>`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).Fetch(context.Background(), "강남구")
			if !errors.Is(err, ErrNoData) {
				t.Fatalf("expected ErrNoData, got %v", err)
			}
			if errors.Is(err, ErrFetchFailed) {
				t.Fatalf("no data must not be reported as a fetch failure")
			}
		})
	}
}

func TestFetchServiceErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"RESULT":{"CODE":"INFO-100","MESSAGE":"인증키가 유효하지 않습니다."}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Fetch(context.Background(), "강남구")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != KindAPI || fe.Code != "INFO-100" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFetchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.Fetch(context.Background(), "강남구")
	if !errors.Is(err, ErrFetchFailed) || KindOf(err) != KindNetwork {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestFetchAsyncDeliversOnceAndCancels(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
			_, _ = w.Write([]byte(emptyFixture))
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	results := c.FetchAsync(ctx, "강남구")
	cancel()

	select {
	case res := <-results:
		if !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled fetch did not complete")
	}
	if _, ok := <-results; ok {
		t.Fatalf("expected channel to be closed after a single result")
	}
}
