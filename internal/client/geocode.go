package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GeocodeClient Kakao 本地搜索的地址转坐标
type GeocodeClient struct {
	URL string
	Key string
	hc  *http.Client
}

func NewGeocodeClient(url, key string) *GeocodeClient {
	return &GeocodeClient{URL: url, Key: key, hc: newHTTPClient()}
}

// Address 没有匹配结果时 ok=false
func (g *GeocodeClient) Address(ctx context.Context, query string) (lat, lng float64, ok bool, err error) {
	h := http.Header{}
	h.Set("Authorization", "KakaoAK "+g.Key)
	var res struct {
		Documents []struct {
			X string `json:"x"`
			Y string `json:"y"`
		} `json:"documents"`
	}
	if err = getJSON(ctx, g.hc, g.URL+"?query="+url.QueryEscape(query), h, &res); err != nil {
		return 0, 0, false, err
	}
	if len(res.Documents) == 0 {
		return 0, 0, false, nil
	}
	doc := res.Documents[0]
	if lng, err = strconv.ParseFloat(doc.X, 64); err != nil {
		return 0, 0, false, err
	}
	if lat, err = strconv.ParseFloat(doc.Y, 64); err != nil {
		return 0, 0, false, err
	}
	return lat, lng, true, nil
}
