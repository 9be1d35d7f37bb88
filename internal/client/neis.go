package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const neisNoData = "INFO-200"

// NeisSchool schoolInfo 的一行
type NeisSchool struct {
	OrgCode    string `json:"ATPT_OFCDC_SC_CODE"`
	SchoolCode string `json:"SD_SCHUL_CODE"`
	Name       string `json:"SCHUL_NM"`
	Kind       string `json:"SCHUL_KND_SC_NM"`
	Address    string `json:"ORG_RDNMA"`
	Homepage   string `json:"HMPG_ADRES"`
}

type Meal struct {
	Date     string   `json:"date"`
	Type     string   `json:"type"`
	Dishes   []string `json:"dishes"`
	Calories string   `json:"calories"`
}

// NeisClient 教育数据开放接口（学校信息、餐单）
type NeisClient struct {
	BaseURL string
	Key     string
	hc      *http.Client
}

func NewNeisClient(baseURL, key string) *NeisClient {
	return &NeisClient{BaseURL: strings.TrimRight(baseURL, "/"), Key: key, hc: newHTTPClient()}
}

func (n *NeisClient) SearchSchools(ctx context.Context, name string) ([]NeisSchool, error) {
	q := url.Values{}
	q.Set("SCHUL_NM", name)
	var rows []NeisSchool
	err := n.query(ctx, "schoolInfo", q, &rows)
	return rows, err
}

// GetSchool 未找到返回 nil, nil
func (n *NeisClient) GetSchool(ctx context.Context, orgCode, schoolCode string) (*NeisSchool, error) {
	q := url.Values{}
	q.Set("ATPT_OFCDC_SC_CODE", orgCode)
	q.Set("SD_SCHUL_CODE", schoolCode)
	var rows []NeisSchool
	if err := n.query(ctx, "schoolInfo", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Meals date 格式 YYYYMMDD
func (n *NeisClient) Meals(ctx context.Context, orgCode, schoolCode, date string) ([]Meal, error) {
	q := url.Values{}
	q.Set("ATPT_OFCDC_SC_CODE", orgCode)
	q.Set("SD_SCHUL_CODE", schoolCode)
	q.Set("MLSV_YMD", date)
	var rows []struct {
		Date     string `json:"MLSV_YMD"`
		Type     string `json:"MMEAL_SC_NM"`
		Dishes   string `json:"DDISH_NM"`
		Calories string `json:"CAL_INFO"`
	}
	if err := n.query(ctx, "mealServiceDietInfo", q, &rows); err != nil {
		return nil, err
	}
	meals := make([]Meal, 0, len(rows))
	for _, r := range rows {
		var dishes []string
		for _, d := range strings.Split(r.Dishes, "<br/>") {
			if d = strings.TrimSpace(d); d != "" {
				dishes = append(dishes, d)
			}
		}
		meals = append(meals, Meal{Date: r.Date, Type: r.Type, Dishes: dishes, Calories: r.Calories})
	}
	return meals, nil
}

// query 响应结构：{"<service>":[{"head":[...]},{"row":[...]}]}，无数据时只有顶层 RESULT
func (n *NeisClient) query(ctx context.Context, service string, q url.Values, dest any) error {
	q.Set("KEY", n.Key)
	q.Set("Type", "json")
	q.Set("pIndex", "1")
	q.Set("pSize", "100")
	var res map[string]json.RawMessage
	if err := getJSON(ctx, n.hc, fmt.Sprintf("%s/%s?%s", n.BaseURL, service, q.Encode()), nil, &res); err != nil {
		return err
	}
	if raw, ok := res["RESULT"]; ok {
		var result struct {
			Code    string `json:"CODE"`
			Message string `json:"MESSAGE"`
		}
		_ = json.Unmarshal(raw, &result)
		if result.Code == neisNoData {
			return nil
		}
		return fmt.Errorf("neis %s: %s %s", service, result.Code, result.Message)
	}
	var parts []map[string]json.RawMessage
	if err := json.Unmarshal(res[service], &parts); err != nil {
		return fmt.Errorf("neis %s: %w", service, err)
	}
	for _, part := range parts {
		if rows, ok := part["row"]; ok {
			return json.Unmarshal(rows, dest)
		}
	}
	return nil
}
