package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type BusStop struct {
	CityCode int     `json:"citycode"`
	NodeID   string  `json:"nodeid"`
	NodeName string  `json:"nodenm"`
	NodeNo   any     `json:"nodeno"`
	Lat      float64 `json:"gpslati"`
	Lng      float64 `json:"gpslong"`
}

type BusArrival struct {
	RouteID      string `json:"routeid"`
	RouteNo      any    `json:"routeno"`
	RouteType    string `json:"routetp"`
	VehicleType  string `json:"vehicletp"`
	PrevStations int    `json:"arrprevstationcnt"`
	ArrivalSec   int    `json:"arrtime"`
	NodeID       string `json:"nodeid"`
	NodeName     string `json:"nodenm"`
}

// TransitClient TAGO 公交接口
type TransitClient struct {
	BaseURL string
	Key     string
	hc      *http.Client
}

func NewTransitClient(baseURL, key string) *TransitClient {
	return &TransitClient{BaseURL: strings.TrimRight(baseURL, "/"), Key: key, hc: newHTTPClient()}
}

func (t *TransitClient) NearbyStops(ctx context.Context, lat, lng float64) ([]BusStop, error) {
	q := url.Values{}
	q.Set("gpsLati", fmt.Sprintf("%f", lat))
	q.Set("gpsLong", fmt.Sprintf("%f", lng))
	var stops []BusStop
	err := t.query(ctx, "BusSttnInfoInqireService/getCrdntPrxmtSttnList", q, &stops)
	return stops, err
}

func (t *TransitClient) Arrivals(ctx context.Context, cityCode, nodeID string) ([]BusArrival, error) {
	q := url.Values{}
	q.Set("cityCode", cityCode)
	q.Set("nodeId", nodeID)
	var arrivals []BusArrival
	err := t.query(ctx, "ArvlInfoInqireService/getSttnAcctoArvlPrearngeInfoList", q, &arrivals)
	return arrivals, err
}

// query items 可能是空串、单个对象或数组，统一解成切片
func (t *TransitClient) query(ctx context.Context, path string, q url.Values, dest any) error {
	q.Set("serviceKey", t.Key)
	q.Set("_type", "json")
	q.Set("numOfRows", "30")
	var res struct {
		Response struct {
			Header struct {
				ResultCode string `json:"resultCode"`
				ResultMsg  string `json:"resultMsg"`
			} `json:"header"`
			Body struct {
				Items json.RawMessage `json:"items"`
			} `json:"body"`
		} `json:"response"`
	}
	if err := getJSON(ctx, t.hc, fmt.Sprintf("%s/%s?%s", t.BaseURL, path, q.Encode()), nil, &res); err != nil {
		return err
	}
	if code := res.Response.Header.ResultCode; code != "" && code != "00" {
		return fmt.Errorf("tago %s: %s %s", path, code, res.Response.Header.ResultMsg)
	}
	items := bytes.TrimSpace(res.Response.Body.Items)
	if len(items) == 0 || items[0] != '{' {
		return json.Unmarshal([]byte("[]"), dest)
	}
	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(items, &wrapper); err != nil {
		return err
	}
	item := bytes.TrimSpace(wrapper.Item)
	if len(item) == 0 {
		return json.Unmarshal([]byte("[]"), dest)
	}
	if item[0] == '{' {
		item = append(append([]byte("["), item...), ']')
	}
	return json.Unmarshal(item, dest)
}
